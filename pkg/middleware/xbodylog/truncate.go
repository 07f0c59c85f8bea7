package xbodylog

import (
	"fmt"
	"unicode/utf8"
)

const (
	// TruncateAbove 超过该字符数的内容才会被截断
	TruncateAbove = 1024
	// TruncateHead 截断后保留的头部字符数
	TruncateHead = 128
	// TruncateTail 截断后保留的尾部字符数
	TruncateTail = 128
	// OmittedMarker 截断位置的标记
	OmittedMarker = "...[omitted]..."
)

// Summarize 按字符（rune）截断长文本：超过 TruncateAbove 时
// 只保留头 TruncateHead 与尾 TruncateTail 个字符，中间以 OmittedMarker 连接。
func Summarize(s string) string {
	return summarize(s, TruncateAbove, TruncateHead, TruncateTail)
}

func summarize(s string, limit, head, tail int) string {
	n := utf8.RuneCountInString(s)
	if n <= limit || head+tail >= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:head]) + OmittedMarker + string(runes[n-tail:])
}

// trimPartialRune 去掉按字节截断时留在末尾的不完整字符
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i]
		}
		return b
	}
	return b
}

// cutText 在不超过 n 字节的最后一个字符边界处截断 s
func cutText(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n], true
}

func truncatedMarker(shown string, total int64) string {
	return fmt.Sprintf("%s\n<truncated: %d of %d bytes>", shown, len(shown), total)
}
