package syncqueue

import (
	"math/rand"
	"time"
)

const (
	backoffBase   = 30 * time.Second
	backoffFactor = 2
	backoffCap    = 30 * time.Minute
	backoffJitter = 0.2
)

// RetryDelay computes the wait before the next attempt: exponential from
// 30s doubling per failed attempt, capped at 30m, with ±20% jitter so a
// fleet of devices that failed together does not retry in lockstep.
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	delay := backoffBase
	for i := 1; i < attempts; i++ {
		delay *= backoffFactor
		if delay >= backoffCap {
			delay = backoffCap
			break
		}
	}

	jitter := 1 + backoffJitter*(2*rand.Float64()-1)
	return time.Duration(float64(delay) * jitter)
}
