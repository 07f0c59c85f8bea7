package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SanitizeFilename 校验纯文件名并返回规范化结果
//
// 用于来自配置的文件名（如日志文件名），它们总是被拼接到受控目录之下：
//   - 拒绝空值、空字节
//   - 拒绝 "." 与 ".."
//   - 拒绝任何目录分隔符（'/' 与 '\'）
//
// 首尾空白会被去除。
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := checkPath(name); err != nil {
		return "", err
	}
	if name == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrPathTraversal)
	}
	if name == "." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q is not a plain filename: %w", name, ErrInvalidPath)
	}
	return name, nil
}

// JoinFilename 校验 name 后将其拼接到 dir 下。
func JoinFilename(dir, name string) (string, error) {
	clean, err := SanitizeFilename(name)
	if err != nil {
		return "", err
	}
	if err := checkPath(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, clean), nil
}
