package service

import (
	"sync"
	"time"
)

// Scheduler runs a callback repeatedly until the returned stop func is
// called. Stop is idempotent and may be called from inside the callback.
type Scheduler interface {
	Repeat(period time.Duration, fn func()) (stop func())
}

// TickerScheduler is the production Scheduler backed by time.Ticker.
// Invocations of one task run serially; ticks missed while a callback is
// still running are dropped.
type TickerScheduler struct{}

// NewTickerScheduler creates a new ticker scheduler
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Repeat starts a task firing every period
func (TickerScheduler) Repeat(period time.Duration, fn func()) func() {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// stop may have raced with the tick
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
