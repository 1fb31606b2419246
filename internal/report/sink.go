package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gocarina/gocsv"
)

// Sink receives records as zones advance. Implementations must be safe for
// concurrent use: zones emit from their own goroutines.
type Sink interface {
	Emit(ctx context.Context, r Record) error
	Close() error
}

// CSVSink buffers records and writes them with a header on Close.
type CSVSink struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	records []Record
}

func NewCSVSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: w}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *CSVSink) Emit(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := gocsv.Marshal(&s.records, s.w)
	if err != nil {
		err = fmt.Errorf("write csv: %w", err)
	}
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// MultiSink fans records out to every sink.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
