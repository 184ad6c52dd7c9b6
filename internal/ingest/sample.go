// Package ingest accepts live high-frequency samples over TCP or a serial
// port and assembles them into fixed-length windows for partitioning.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sample is one instrument record: vertical wind (m/s), water vapor
// density (kg/m^3) and CO2 density (kg/m^3).
type Sample struct {
	W float64
	Q float64
	C float64
}

// ParseSample parses one newline-delimited "w,q,c" record
func ParseSample(line string) (Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return Sample{}, fmt.Errorf("expected 3 fields in sample record, got %d", len(fields))
	}

	var s Sample
	var err error
	if s.W, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64); err != nil {
		return Sample{}, fmt.Errorf("bad w value %q: %w", fields[0], err)
	}
	if s.Q, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err != nil {
		return Sample{}, fmt.Errorf("bad q value %q: %w", fields[1], err)
	}
	if s.C, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
		return Sample{}, fmt.Errorf("bad c value %q: %w", fields[2], err)
	}
	return s, nil
}

// Window is one interval's worth of accumulated samples
type Window struct {
	Start time.Time
	End   time.Time
	W     []float64
	Q     []float64
	C     []float64
}

// WindowHandler receives completed sample windows
type WindowHandler func(Window)

// Assembler collects samples into interval windows and hands full windows
// to the handler. It is safe for concurrent use by multiple transports.
type Assembler struct {
	mu      sync.Mutex
	size    int
	start   time.Time
	w, q, c []float64
	handler WindowHandler
	now     func() time.Time
}

// NewAssembler creates an assembler producing windows of size samples
func NewAssembler(size int, handler WindowHandler) *Assembler {
	if size < 1 {
		size = 1
	}
	return &Assembler{
		size:    size,
		handler: handler,
		now:     time.Now,
	}
}

// Add appends one sample, dispatching a window when it fills
func (a *Assembler) Add(s Sample) {
	a.mu.Lock()

	if len(a.w) == 0 {
		a.start = a.now()
		if cap(a.w) == 0 {
			a.w = make([]float64, 0, a.size)
			a.q = make([]float64, 0, a.size)
			a.c = make([]float64, 0, a.size)
		}
	}
	a.w = append(a.w, s.W)
	a.q = append(a.q, s.Q)
	a.c = append(a.c, s.C)

	if len(a.w) < a.size {
		a.mu.Unlock()
		return
	}

	win := Window{
		Start: a.start,
		End:   a.now(),
		W:     a.w,
		Q:     a.q,
		C:     a.c,
	}
	a.w = make([]float64, 0, a.size)
	a.q = make([]float64, 0, a.size)
	a.c = make([]float64, 0, a.size)
	a.mu.Unlock()

	a.handler(win)
}

// Pending reports how many samples are waiting in the current window
func (a *Assembler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.w)
}
