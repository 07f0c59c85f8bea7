package engine

import (
	"log/slog"

	"vllm/utils"
)

var logger = slog.Default()

type Engine struct{}

func (e *Engine) Step(requestID string, n int) int { return n }

func (e *Engine) Abort(reqID string) bool { return reqID != "" }

func (e *Engine) Init(requestID string) {}

func (e *Engine) Stats() int { return 0 }

func (e *Engine) flush(requestID string) {}

type engineState struct{}

func (engineState) Reset(requestID string) {}

type Pool[T any] struct{ items []T }

func (p *Pool[T]) Take(requestID string) T {
	var zero T
	return zero
}

// Helper 别名不属于本包
type Helper = utils.Helper

type Runner interface {
	Run(requestID string)
}
