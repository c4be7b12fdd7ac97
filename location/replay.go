// ABOUTME: Replays a recorded track as a location source
// ABOUTME: Used by the CLI to feed saved GPS tracks into a session
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Replay emits a fixed list of samples, one per Interval.
type Replay struct {
	Samples  []Sample
	Interval time.Duration
	Now      func() time.Time
}

func (r *Replay) Watch(ctx context.Context, onSample func(Sample), _ func(error)) error {
	now := r.Now
	if now == nil {
		now = time.Now
	}

	for i, s := range r.Samples {
		if i > 0 && r.Interval > 0 {
			t := time.NewTimer(r.Interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = now()
		}
		onSample(s)
	}
	return nil
}

// ReadTrack decodes a JSON array of {"lat","lng"} samples.
func ReadTrack(r io.Reader) ([]Sample, error) {
	var samples []Sample
	if err := json.NewDecoder(r).Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	for i, s := range samples {
		if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
			return nil, fmt.Errorf("sample %d out of range: %f,%f", i, s.Lat, s.Lng)
		}
	}
	return samples, nil
}
