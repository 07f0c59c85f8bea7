package xbodylog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/omeyang/xinfer/pkg/util/xjson"
)

// FakeMediaContent 多媒体分片 url 的替换值
const FakeMediaContent = "[FAKE_MEDIA_CONTENT]"

// mediaTypes 会被替换的消息分片类型
var mediaTypes = map[string]struct{}{
	"audio_url": {},
	"image_url": {},
	"video_url": {},
}

// =============================================================================
// 请求体旁路捕获
// =============================================================================

// captureBody 包装 r.Body，在 handler 读取的同时复制正文。
// 以 { 或 [ 开头的正文最多保留 jsonMax 字节以便完整解析，其余最多 max 字节。
// 读到 EOF 或 finish 时调用 done 一次。
type captureBody struct {
	rc      io.ReadCloser
	max     int
	jsonMax int
	limit   int
	sniffed bool
	buf     bytes.Buffer
	total   int64
	once    sync.Once
	done    func(body []byte, total int64, complete bool)
}

func newCaptureBody(rc io.ReadCloser, maxBytes, jsonMax int, done func([]byte, int64, bool)) *captureBody {
	return &captureBody{rc: rc, max: maxBytes, jsonMax: max(maxBytes, jsonMax), limit: maxBytes, done: done}
}

func (c *captureBody) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	if n > 0 {
		c.total += int64(n)
		if !c.sniffed {
			c.sniff(p[:n])
		}
		if room := c.limit - c.buf.Len(); room > 0 {
			c.buf.Write(p[:min(n, room)])
		}
	}
	if errors.Is(err, io.EOF) {
		c.fire(true)
	}
	return n, err
}

// sniff 按第一个非空白字节决定捕获上限
func (c *captureBody) sniff(b []byte) {
	for _, ch := range b {
		switch ch {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			c.limit = c.jsonMax
		}
		c.sniffed = true
		return
	}
}

func (c *captureBody) Close() error {
	return c.rc.Close()
}

// finish 在 handler 返回后调用；未读到 EOF 但已读过数据时按不完整记录。
func (c *captureBody) finish() {
	if c.total == 0 {
		return
	}
	c.fire(false)
}

func (c *captureBody) fire(complete bool) {
	c.once.Do(func() {
		c.done(c.buf.Bytes(), c.total, complete)
	})
}

// =============================================================================
// 请求体格式化
// =============================================================================

// dataURI 匹配 JSON 字符串形式的 data URI，未闭合的截到文本末尾
var dataURI = regexp.MustCompile(`"data:[^"]*(?:"|$)`)

// formatRequestBody 返回请求体的日志文本，输出最多 limit 字节。
//
// 非法 UTF-8 → <binary_data: N bytes>。完整的 JSON 正文先剥离多媒体再缩进，
// 之后才按 limit 截断；不完整或无法解析的正文按原文输出，其中的 data URI
// 替换为 FakeMediaContent。
func formatRequestBody(body []byte, total int64, complete bool, limit int) string {
	whole := complete && int64(len(body)) == total
	if !whole {
		body = trimPartialRune(body)
	}
	if !utf8.Valid(body) {
		return fmt.Sprintf("<binary_data: %d bytes>", total)
	}

	if whole {
		if text, ok := formatJSON(body); ok {
			shown, cut := cutText(text, limit)
			if !cut {
				return shown
			}
			return truncatedMarker(shown, int64(len(text)))
		}
	}

	text := dataURI.ReplaceAllLiteralString(string(body), `"`+FakeMediaContent+`"`)
	shown, cut := cutText(text, limit)
	if !cut && int64(len(body)) == total {
		return shown
	}
	return truncatedMarker(shown, total)
}

// formatJSON 解析单个 JSON 值，剥离多媒体后缩进
func formatJSON(body []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return "", false
	}
	if !stripMedia(v) {
		// 无需改写时保留原字段顺序
		if s, err := xjson.IndentRaw(body); err == nil {
			return s, true
		}
	}
	return xjson.Pretty(v), true
}

// stripMedia 将 messages[*].content[*] 中的多媒体分片替换为占位分片，
// 返回是否发生了替换。
func stripMedia(v any) bool {
	root, ok := v.(map[string]any)
	if !ok {
		return false
	}
	messages, ok := root["messages"].([]any)
	if !ok {
		return false
	}
	changed := false
	for _, msg := range messages {
		m, ok := msg.(map[string]any)
		if !ok {
			continue
		}
		parts, ok := m["content"].([]any)
		if !ok {
			continue
		}
		for i, part := range parts {
			p, ok := part.(map[string]any)
			if !ok {
				continue
			}
			typ, _ := p["type"].(string)
			if _, media := mediaTypes[typ]; !media {
				continue
			}
			parts[i] = map[string]any{"type": typ, "url": FakeMediaContent}
			changed = true
		}
	}
	return changed
}
