package logging

type Logger struct{}

var logger = &Logger{}
