package farmstats

import "time"

// SetRetryDelay ускоряет повторы в тестах
func SetRetryDelay(d time.Duration) func() {
	prev := retryDelay
	retryDelay = d
	return func() { retryDelay = prev }
}
