package services

import "errors"

// Refresh coordination errors
var (
	// ErrRefreshQueueFull is returned when more requests try to await a
	// single in-flight refresh than the configured queue size admits.
	ErrRefreshQueueFull = errors.New("credential refresh queue is full")
)
