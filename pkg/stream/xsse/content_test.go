package xsse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/xinfer/pkg/stream/xsse"
)

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"chat 分块", `{"object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":"你好"}}]}`, "你好"},
		{"chat 只取第一个 choice", `{"object":"chat.completion.chunk","choices":[{"delta":{"content":"a"}},{"delta":{"content":"b"}}]}`, "a"},
		{"chat 无 content", `{"object":"chat.completion.chunk","choices":[{"delta":{"role":"assistant"}}]}`, ""},
		{"chat content 为 null", `{"object":"chat.completion.chunk","choices":[{"delta":{"content":null}}]}`, ""},
		{"chat 空 choices", `{"object":"chat.completion.chunk","choices":[]}`, ""},
		{"text 分块", `{"object":"text_completion","choices":[{"text":" world","index":0}]}`, " world"},
		{"未知字段不影响", `{"object":"chat.completion.chunk","choices":[{"delta":{"content":"ok"},"index":"zero"}],"usage":7}`, "ok"},
		{"类型解码失败时宽松提取", `{"object":"chat.completion.chunk","choices":[{"delta":{"content":"ok"}},{"delta":"oops"}]}`, "ok"},
		{"类型解码失败时宽松提取 text", `{"object":"text_completion","choices":[{"text":"t"},{"text":3}]}`, "t"},
		{"delta.content 非字符串", `{"object":"chat.completion.chunk","choices":[{"delta":{"content":5}}]}`, ""},
		{"未知 object", `{"object":"embedding","choices":[{"text":"x"}]}`, ""},
		{"缺少 object", `{"choices":[{"text":"x"}]}`, ""},
		{"非对象", `[1,2]`, ""},
		{"非法 JSON", `{`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, xsse.ExtractContent([]byte(tt.data)))
		})
	}
}
