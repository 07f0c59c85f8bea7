package openai

import "log/slog"

var logger = slog.Default()

type Request struct{}

type Server struct{}

func (s *Server) Handle(r *Request, request_id string, opts ...string) {}
