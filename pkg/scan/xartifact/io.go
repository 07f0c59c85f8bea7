package xartifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/omeyang/xinfer/pkg/util/xfile"
)

// Encode 以两空格缩进写出产物
func (r *Record) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Decode 读取并校验产物
func Decode(rd io.Reader) (*Record, error) {
	var r Record
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.Normalize()
	return &r, nil
}

// Load 从文件加载产物
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	r, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Save 原子写入 dir/<FileName>，返回完整路径
func Save(dir string, r *Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	path, err := xfile.JoinFilename(dir, r.FileName())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return "", err
	}
	if err := xfile.WriteFileAtomic(path, buf.Bytes(), xfile.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
