package xsse

import "encoding/json"

// OpenAI 流式分块的 object 取值
const (
	ObjectChatCompletionChunk = "chat.completion.chunk"
	ObjectTextCompletion      = "text_completion"
)

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type textCompletionChunk struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// ExtractContent 取出分块中第一个 choice 的增量文本
//
// chat.completion.chunk 取 choices[0].delta.content，text_completion 取
// choices[0].text。按类型解码失败时退化为宽松的 map 提取；其他 object 返回 ""。
func ExtractContent(data []byte) string {
	var head struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}

	switch head.Object {
	case ObjectChatCompletionChunk:
		var c chatCompletionChunk
		if err := json.Unmarshal(data, &c); err != nil {
			return extractLoose(data)
		}
		if len(c.Choices) > 0 && c.Choices[0].Delta.Content != nil {
			return *c.Choices[0].Delta.Content
		}
	case ObjectTextCompletion:
		var c textCompletionChunk
		if err := json.Unmarshal(data, &c); err != nil {
			return extractLoose(data)
		}
		if len(c.Choices) > 0 {
			return c.Choices[0].Text
		}
	}
	return ""
}

// extractLoose 不校验结构，只在字段恰好是字符串时取值
func extractLoose(data []byte) string {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	choices, _ := m["choices"].([]any)
	if len(choices) == 0 {
		return ""
	}
	choice, _ := choices[0].(map[string]any)
	if delta, ok := choice["delta"].(map[string]any); ok {
		if s, _ := delta["content"].(string); s != "" {
			return s
		}
	}
	s, _ := choice["text"].(string)
	return s
}
