package xctx

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// 关联 ID
//
// 一次推理请求在 HTTP 入口、宿主方法调用与流式响应日志之间共用的 request_id。
// 来源有两种：调用方在请求头中携带，或入口中间件生成。
// =============================================================================

// KeyRequestID 关联 ID 的日志字段名
const KeyRequestID = "request_id"

// MaxRequestIDLen 外部传入的关联 ID 长度上限
const MaxRequestIDLen = 128

const keyRequestID = contextKey("xctx:request_id")

// WithRequestID 返回携带 id 的子 context，不校验 id
func WithRequestID(ctx context.Context, id string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyRequestID, id), nil
}

// RequestID 取出关联 ID，未设置时为空字符串
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// GenerateRequestID 生成 32 位小写十六进制的关联 ID（去掉连字符的 UUIDv4）
func GenerateRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidRequestID 判断外部传入的关联 ID 能否原样写入日志行
//
// 要求非空、不超过 MaxRequestIDLen 字节、只含可打印 ASCII（不含空格）。
func ValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLen {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool { return r < 0x21 || r > 0x7e }) < 0
}
