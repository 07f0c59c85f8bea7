package sub

import "log/slog"

var logger = slog.Default()

type Worker struct{}

func (Worker) Work(requestID string) {}
