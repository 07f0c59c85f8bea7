package broken

import "log/slog"

var logger = slog.Default()

var answer int = "forty-two"
