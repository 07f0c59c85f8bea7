package xjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMarshal 序列化失败
var ErrMarshal = errors.New("xjson: marshal failed")

// ErrInvalidJSON 输入不是合法 JSON
var ErrInvalidJSON = errors.New("xjson: invalid json")

const indent = "  "

// PrettyE 将任意值序列化为缩进的 JSON 字符串。
func PrettyE(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Pretty 将任意值序列化为格式化的 JSON 字符串。
// 用于日志和调试输出。序列化失败时返回 "<marshal error: ...>"。
func Pretty(v any) string {
	s, err := PrettyE(v)
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return s
}

// IndentRaw 对原始 JSON 字节重新缩进，字段顺序保持不变。
func IndentRaw(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return "", ErrInvalidJSON
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", indent); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return buf.String(), nil
}
