package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter redraws a single status line with the current phase and a countdown.
//
// Usage:
//
//	p := NewProgressPrinter(os.Stdout, "Looking for PlajTime", "scanning", 10*time.Second)
//	p.Start()
//	defer p.Stop()
//	p.SetPhase("syncing")
//
// When out is not a terminal nothing is animated: only phase changes are printed,
// one per line, so redirected output stays readable.
type ProgressPrinter struct {
	out      io.Writer
	prefix   string
	phase    atomic.Value // string
	duration time.Duration
	animate  bool

	startTime time.Time
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
}

// NewProgressPrinter creates a printer counting down from duration (0 counts up)
func NewProgressPrinter(out io.Writer, prefix, phase string, duration time.Duration) *ProgressPrinter {
	p := &ProgressPrinter{
		out:      out,
		prefix:   prefix,
		duration: duration,
		animate:  isTerminal(out),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	p.phase.Store(phase)
	return p
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start begins displaying progress. Panics if called more than once.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}
	p.startTime = time.Now()

	if !p.animate {
		fmt.Fprintf(p.out, "%s (%s...)\n", p.prefix, p.phase.Load().(string))
		close(p.done)
		return
	}

	fmt.Fprintf(p.out, "\r%s (%s...)   ", p.prefix, p.phase.Load().(string))
	ticker := time.NewTicker(progressUpdateInterval)
	go func() {
		defer close(p.done)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopChan:
				return
			case <-ticker.C:
				p.printProgress()
			}
		}
	}()
}

func (p *ProgressPrinter) printProgress() {
	phase := p.phase.Load().(string)
	elapsed := time.Since(p.startTime)

	seconds := int(elapsed.Seconds())
	if p.duration > 0 {
		// Countdown mode: round remaining time to the nearest second, never below 0
		remaining := p.duration - elapsed
		seconds = 0
		if remaining > 0 {
			seconds = int(remaining.Seconds() + 0.5)
		}
	}
	fmt.Fprintf(p.out, "\r%s (%s %ds)   ", p.prefix, phase, seconds)
}

// SetPhase changes the displayed phase. Safe for concurrent use.
func (p *ProgressPrinter) SetPhase(phase string) {
	if old, _ := p.phase.Swap(phase).(string); old == phase {
		return
	}
	if !p.animate && p.started.Load() {
		fmt.Fprintf(p.out, "%s (%s...)\n", p.prefix, phase)
	}
}

// Stop stops the display and clears the line. Safe to call more than once.
func (p *ProgressPrinter) Stop() {
	if !p.started.Load() {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopChan)
		<-p.done
		if p.animate {
			fmt.Fprint(p.out, clearLineSequence)
		}
	})
}
