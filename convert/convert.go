// Package convert moves series between their host form, a labeled frame.Series, and their
// engine form, an engine.TimeSeries, and routes results back to whichever form the caller
// passed in.
package convert

import (
	"fmt"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/index"
)

// Origin records which form an input arrived in.
type Origin int

const (
	OriginHost Origin = iota + 1
	OriginEngine
)

func (o Origin) String() string {
	switch o {
	case OriginHost:
		return "host"
	case OriginEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// ToExternal converts a host series into an engine time series. The start and frequency come
// from the index shape: a flat index starts at its first label with frequency 1, a seasonal
// index starts at period + (position-1)/frequency. Indexes with gaps or repeats cannot be
// represented and fail.
func ToExternal(s *frame.Series) (*engine.TimeSeries, error) {
	if s == nil {
		return nil, fmt.Errorf("nil series, %w", errdefs.ErrInvalidArgument)
	}
	start, freq, err := index.Descriptor(s.Index)
	if err != nil {
		return nil, fmt.Errorf("unable to describe index, %w", err)
	}
	if !s.Index.Regular() {
		return nil, fmt.Errorf("index is not regularly spaced, %w", errdefs.ErrInvalidArgument)
	}

	t := float64(start.Outer)
	if s.Index.Shape() == index.ShapeSeasonal {
		t += float64(start.Inner-1) / float64(freq)
	}
	return engine.NewTimeSeries(s.Values, t, float64(freq))
}

// FromExternal converts an engine time series into a host series. The index is rebuilt from
// the series' own time and cycle values rather than recomputed from its start.
func FromExternal(ts *engine.TimeSeries) (*frame.Series, error) {
	if ts == nil {
		return nil, fmt.Errorf("nil time series, %w", errdefs.ErrInvalidArgument)
	}
	idx, err := index.FromTimes(ts.Time(), ts.Cycle(), ts.GetFrequency())
	if err != nil {
		return nil, err
	}
	return frame.NewSeries("", ts.Values, idx)
}

// AcceptEither converts a host series, or passes through an engine time series, and records
// which one it was.
func AcceptEither(x any) (*engine.TimeSeries, Origin, error) {
	switch v := x.(type) {
	case *frame.Series:
		ts, err := ToExternal(v)
		if err != nil {
			return nil, 0, err
		}
		return ts, OriginHost, nil
	case *engine.TimeSeries:
		if v == nil {
			break
		}
		return v, OriginEngine, nil
	}
	return nil, 0, fmt.Errorf("%T must be a native series or external time-series value, %w", x, errdefs.ErrType)
}

// SequenceAsSeries labels values with the index generated from start and frequency.
func SequenceAsSeries(values []float64, start index.Start, frequency int) (*frame.Series, error) {
	idx, err := index.FromDescriptor(start, frequency, len(values))
	if err != nil {
		return nil, err
	}
	return frame.NewSeries("", values, idx)
}

// ToSeries returns a host series for either form.
func ToSeries(x any) (*frame.Series, error) {
	switch v := x.(type) {
	case *frame.Series:
		if v != nil {
			return v, nil
		}
	case *engine.TimeSeries:
		return FromExternal(v)
	}
	return nil, fmt.Errorf("%T is not a series, %w", x, errdefs.ErrType)
}
