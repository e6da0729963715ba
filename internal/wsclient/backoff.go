package wsclient

import "time"

// MaxReconnectDelay caps the delay between reconnect attempts.
const MaxReconnectDelay = 30 * time.Second

// Backoff returns the delay before reconnect attempt n (1-based):
// interval * 2^(n-1), capped at MaxReconnectDelay.
func Backoff(interval time.Duration, attempt int) time.Duration {
	if interval <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	delay := interval
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= MaxReconnectDelay {
			return MaxReconnectDelay
		}
	}
	if delay > MaxReconnectDelay {
		return MaxReconnectDelay
	}
	return delay
}
