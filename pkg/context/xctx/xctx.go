package xctx

import "errors"

// contextKey 包私有的 context key 类型，字符串值便于调试
type contextKey string

// ErrNilContext 传入的 context 为 nil
var ErrNilContext = errors.New("xctx: nil context")
