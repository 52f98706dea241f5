// Package metrics records build timings for layout inference.
package metrics

import "time"

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRound(time.Duration)             {}
func (NoopRecorder) ObserveBuild(time.Duration, int, error) {}
func (NoopRecorder) ObserveVariables(int)                   {}
