package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm 默认目录权限
//
// 0750：所有者读写执行，组读执行，其他无权限（gosec G301）。
const DefaultDirPerm = 0750

// EnsureDir 确保文件的父目录存在，使用默认权限 0750。
// 目录已存在时不报错。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 确保文件的父目录存在，使用指定权限
//
// perm 必须包含所有者执行位（0100），否则目录无法遍历。
// 如果目录已存在，不会修改其权限。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if err := checkPath(filename); err != nil {
		return err
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return MkdirAll(dir, perm)
}

// MkdirAll 确保目录 dir 存在（含所有父目录）。
func MkdirAll(dir string, perm os.FileMode) error {
	if err := checkPath(dir); err != nil {
		return err
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	return os.MkdirAll(dir, perm)
}

// Exists 判断路径是否存在（文件或目录）。
// 无法判断时（如权限不足）返回 false。
func Exists(path string) bool {
	if path == "" || containsNullByte(path) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func checkPath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if containsNullByte(path) {
		return fmt.Errorf("%q: %w", path, ErrNullByte)
	}
	return nil
}

func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}
