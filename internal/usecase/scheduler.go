package usecase

import (
	"time"

	"stthebrew/internal/ports"
)

// TimeScheduler runs deferred calls on the runtime timer.
type TimeScheduler struct{}

func (TimeScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}
