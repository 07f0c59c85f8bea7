package utils

import "log/slog"

var log = slog.Default()

type Helper struct{}

func (Helper) Assist(requestID string) {}

func (Helper) Lookup(requestId string) {}
