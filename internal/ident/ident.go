// Package ident generates time-ordered record identifiers.
//
// Identifiers are RFC 9562 UUIDv7 strings. The 12-bit rand_a field carries a
// per-millisecond counter so identifiers minted within the same millisecond
// still sort in the order they were generated.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxCounter = 0x0fff

// Source produces monotonically increasing UUIDv7 identifiers.
type Source struct {
	mu      sync.Mutex
	now     func() time.Time
	random  io.Reader
	lastMS  int64
	counter uint16
}

// Option configures a Source.
type Option func(*Source)

// WithClock overrides the wall clock used for the timestamp component.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom overrides the random source used for the tail bits.
func WithRandom(r io.Reader) Option {
	return func(s *Source) {
		if r != nil {
			s.random = r
		}
	}
}

// New creates a Source.
func New(opts ...Option) *Source {
	s := &Source{now: time.Now, random: rand.Reader}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultOnce   sync.Once
	defaultSource *Source
)

// Default returns the process-wide Source.
func Default() *Source {
	defaultOnce.Do(func() {
		defaultSource = New()
	})
	return defaultSource
}

// Next returns a new identifier. It panics if the random source fails,
// which crypto/rand does not do in practice.
func (s *Source) Next() string {
	id, err := s.next()
	if err != nil {
		panic(fmt.Errorf("ident: %w", err))
	}
	return id.String()
}

func (s *Source) next() (uuid.UUID, error) {
	var id uuid.UUID
	if _, err := io.ReadFull(s.random, id[8:]); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	ms := s.now().UnixMilli()
	if ms > s.lastMS {
		s.lastMS = ms
		s.counter = 0
	} else if s.counter < maxCounter {
		// Same tick, or the wall clock stepped backwards.
		s.counter++
	} else {
		s.lastMS++
		s.counter = 0
	}
	ms, counter := s.lastMS, s.counter
	s.mu.Unlock()

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(ms))
	copy(id[0:6], ts[2:8])
	id[6] = 0x70 | byte(counter>>8)
	id[7] = byte(counter)
	id[8] = (id[8] & 0x3f) | 0x80
	return id, nil
}

// Timestamp returns the creation time embedded in a UUIDv7 identifier.
func Timestamp(id string) (time.Time, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	if parsed.Version() != 7 {
		return time.Time{}, fmt.Errorf("identifier %s is not a version 7 uuid", id)
	}
	ms := int64(binary.BigEndian.Uint64(parsed[0:8]) >> 16)
	return time.UnixMilli(ms).UTC(), nil
}
