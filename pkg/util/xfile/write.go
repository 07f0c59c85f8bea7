package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFilePerm 默认文件权限
const DefaultFilePerm = 0644

// WriteFileAtomic 先写同目录临时文件再 rename，读者不会看到写了一半的文件。
// 父目录不存在时按 DefaultDirPerm 创建。
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	if err := EnsureDir(filename); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), filename)
}
