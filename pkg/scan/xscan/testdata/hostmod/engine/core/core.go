package core

import (
	"context"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "", 0)

type Scheduler struct{}

func (s Scheduler) Schedule(ctx context.Context, req_id string, _ int) error { return nil }
