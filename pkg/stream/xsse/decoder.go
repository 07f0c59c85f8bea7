package xsse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// 协议常量
const (
	// DataPrefix 数据行前缀
	DataPrefix = "data: "

	// DoneSentinel 流结束标记
	DoneSentinel = "[DONE]"

	// ContentType 事件流的媒体类型
	ContentType = "text/event-stream"
)

// ErrDecode 单行解码失败，该行被跳过
var ErrDecode = errors.New("xsse: decode error")

// EventType 事件类型
type EventType int

const (
	// EventData 数据帧
	EventData EventType = iota
	// EventDone 结束标记
	EventDone
)

// String 返回事件类型名称
func (t EventType) String() string {
	switch t {
	case EventData:
		return "data"
	case EventDone:
		return "done"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event 解码得到的事件
type Event struct {
	Type EventType
	// Data EventData 的 JSON 负载；EventDone 时为 nil
	Data json.RawMessage
}

// Option 配置 Decoder
type Option func(*Decoder)

// WithErrorHandler 接收被跳过的行的错误（包装 ErrDecode）
func WithErrorHandler(fn func(error)) Option {
	return func(d *Decoder) {
		d.onError = fn
	}
}

// Decoder SSE 增量解码器
type Decoder struct {
	buf     []byte
	content []string
	size    int
	onError func(error)
}

// NewDecoder 创建解码器
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode 追加 chunk 并返回其中完整行产生的事件
func (d *Decoder) Decode(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	start := 0
	for {
		i := bytes.IndexByte(d.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := d.buf[start : start+i]
		start += i + 1

		if ev, ok := d.decodeLine(bytes.TrimSuffix(line, []byte{'\r'})); ok {
			events = append(events, ev)
		}
	}

	// 保留不完整的尾部
	if start > 0 {
		n := copy(d.buf, d.buf[start:])
		d.buf = d.buf[:n]
	}
	return events
}

func (d *Decoder) decodeLine(line []byte) (Event, bool) {
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return Event{}, false
	}
	payload := bytes.TrimSpace(line[len(DataPrefix):])
	if len(payload) == 0 {
		return Event{}, false
	}
	if !utf8.Valid(payload) {
		d.report(fmt.Errorf("%w: invalid utf-8 (%d bytes)", ErrDecode, len(payload)))
		return Event{}, false
	}
	if string(payload) == DoneSentinel {
		return Event{Type: EventDone}, true
	}
	if !json.Valid(payload) {
		d.report(fmt.Errorf("%w: malformed json (%d bytes)", ErrDecode, len(payload)))
		return Event{}, false
	}
	// payload 指向内部缓冲区，复制后再交给调用方
	return Event{Type: EventData, Data: bytes.Clone(payload)}, true
}

func (d *Decoder) report(err error) {
	if d.onError != nil {
		d.onError(err)
	}
}

// Buffered 返回尚未构成完整行的字节数
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Append 追加一段文本，空串被忽略
func (d *Decoder) Append(s string) {
	if s == "" {
		return
	}
	d.content = append(d.content, s)
	d.size += len(s)
}

// Content 返回已追加文本的拼接结果
func (d *Decoder) Content() string {
	var b strings.Builder
	b.Grow(d.size)
	for _, s := range d.content {
		b.WriteString(s)
	}
	return b.String()
}

// Fragments 返回已追加的文本段数
func (d *Decoder) Fragments() int {
	return len(d.content)
}

// Reset 丢弃缓冲与累积内容
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.content = nil
	d.size = 0
}
