package utils

import "log"

// ToPointer returns a pointer to the given value.
func ToPointer[T any](v T) *T {
	return &v
}

// GoSafe runs fn in a goroutine and recovers from panics so a single
// background worker cannot take down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic in goroutine: %v", r)
			}
		}()
		fn()
	}()
}
