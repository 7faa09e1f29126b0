package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

type Sink interface {
	Emit(ctx context.Context, n domain.Notification) error
}

// Fanout hands every notification to all sinks. A failing sink does not stop
// the others; their errors are joined.
type Fanout struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	sink Sink
}

func NewFanout() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Add(name string, sink Sink) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

func (f *Fanout) Emit(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.sink.Emit(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
