// Package timing measures how long provisioning phases take.
package timing

import "time"

// now is replaced in tests.
var now = time.Now

// Measure runs fn and returns its result along with the wall-clock time it took.
// The duration is reported even when fn fails.
func Measure[T any](fn func() (T, error)) (T, time.Duration, error) {
	start := now()
	res, err := fn()
	return res, now().Sub(start), err
}

// Run is Measure for functions that only return an error.
func Run(fn func() error) (time.Duration, error) {
	_, d, err := Measure(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return d, err
}
