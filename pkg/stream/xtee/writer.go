package xtee

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultBuffer 默认可积压的块数
const DefaultBuffer = 256

// ObserveFunc 按写入顺序接收每个块的副本，在观察 goroutine 中调用
//
// 返回错误会停止观察，Close 返回该错误；客户端写入不受影响。
type ObserveFunc func(chunk []byte) error

// Option 配置 Writer
type Option func(*Writer)

// WithBuffer 设置可积压的块数，n <= 0 时使用 DefaultBuffer
func WithBuffer(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// Writer 旁路观察的 http.ResponseWriter
type Writer struct {
	http.ResponseWriter

	bufSize int
	ch      chan []byte
	group   *errgroup.Group

	mu     sync.RWMutex
	closed bool

	wroteHeader atomic.Bool
	status      atomic.Int32
	contentType atomic.Pointer[string]

	chunks  atomic.Int64
	dropped atomic.Int64
	bytes   atomic.Int64
}

// New 创建 Writer 并启动观察 goroutine
func New(ctx context.Context, w http.ResponseWriter, observe ObserveFunc, opts ...Option) *Writer {
	tw := &Writer{ResponseWriter: w, bufSize: DefaultBuffer}
	for _, opt := range opts {
		if opt != nil {
			opt(tw)
		}
	}
	tw.ch = make(chan []byte, tw.bufSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case chunk, ok := <-tw.ch:
				if !ok {
					// 流已结束，但请求在结束前被取消时仍视为中断
					return gctx.Err()
				}
				if err := observe(chunk); err != nil {
					return err
				}
			}
		}
	})
	tw.group = g
	return tw
}

// WriteHeader 记录状态码与媒体类型后转发
func (w *Writer) WriteHeader(code int) {
	w.commitHeader(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *Writer) commitHeader(code int) {
	if !w.wroteHeader.CompareAndSwap(false, true) {
		return
	}
	w.status.Store(int32(code))
	ct := w.ResponseWriter.Header().Get("Content-Type")
	w.contentType.Store(&ct)
}

// Write 先写客户端，再投递已写出部分的副本
func (w *Writer) Write(p []byte) (int, error) {
	w.commitHeader(http.StatusOK)
	n, err := w.ResponseWriter.Write(p)
	if n > 0 {
		w.offer(p[:n])
	}
	return n, err
}

func (w *Writer) offer(p []byte) {
	w.chunks.Add(1)
	w.bytes.Add(int64(len(p)))

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		return
	}
	select {
	case w.ch <- append([]byte(nil), p...):
	default:
		w.dropped.Add(1)
	}
}

// Flush 转发给底层 http.Flusher
func (w *Writer) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap 供 http.ResponseController 访问底层 writer
func (w *Writer) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Close 停止投递并等待观察者处理完积压的块
//
// 返回观察者的错误，或请求 context 取消时的 context 错误。重复调用安全。
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()
	return w.group.Wait()
}

// Status 返回已提交的状态码，未提交时为 0
func (w *Writer) Status() int {
	return int(w.status.Load())
}

// ContentType 返回提交响应头时的 Content-Type
func (w *Writer) ContentType() string {
	if ct := w.contentType.Load(); ct != nil {
		return *ct
	}
	return ""
}

// Chunks 返回写给客户端的块数
func (w *Writer) Chunks() int64 {
	return w.chunks.Load()
}

// Bytes 返回写给客户端的字节数
func (w *Writer) Bytes() int64 {
	return w.bytes.Load()
}

// Dropped 返回未投递给观察者的块数
func (w *Writer) Dropped() int64 {
	return w.dropped.Load()
}

// Lossy 观察者是否漏掉了块
func (w *Writer) Lossy() bool {
	return w.Dropped() > 0
}
