package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// loadSpinner animates a one-line status on w while a graph loads. The
// message can change between phases, and the line shows the time spent so
// far. All methods are safe on a nil spinner, which is what callers use when
// debug logging owns the terminal.
type loadSpinner struct {
	w       io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	start   time.Time
	started bool

	mu      sync.Mutex
	message string
	width   int // widest line written, for clearing

	once    sync.Once
	stopped chan struct{}
}

func newLoadSpinner(parent context.Context, w io.Writer, message string) *loadSpinner {
	ctx, cancel := context.WithCancel(parent)
	return &loadSpinner{
		w:       w,
		parent:  parent,
		ctx:     ctx,
		cancel:  cancel,
		start:   time.Now(),
		message: message,
		stopped: make(chan struct{}),
	}
}

// run animates until stop is called or the context ends.
func (s *loadSpinner) run() {
	if s == nil || s.started {
		return
	}
	s.started = true
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.mu.Lock()
				line := s.line(i, time.Since(s.start))
				s.width = max(s.width, len(line))
				fmt.Fprint(s.w, "\r"+line)
				s.mu.Unlock()
			}
		}
	}()
}

// line renders frame i of the spinner. Callers hold s.mu.
func (s *loadSpinner) line(i int, elapsed time.Duration) string {
	frame := spinnerFrames[i%len(spinnerFrames)]
	text := s.message
	if elapsed >= time.Second {
		text += fmt.Sprintf(" (%ds)", int(elapsed/time.Second))
	}
	return styleIconSpinner.Render(frame) + " " + StyleDim.Render(text)
}

// phase replaces the message, for example once loading gives way to
// building the graph.
func (s *loadSpinner) phase(format string, args ...any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.message = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

// stop ends the animation and clears the line. It may be called more than
// once.
func (s *loadSpinner) stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
	})
}

// fail stops the spinner and reports msg in its place.
func (s *loadSpinner) fail(msg string) {
	if s == nil {
		return
	}
	s.stop()
	fmt.Fprintln(s.w, styleIconError.Render(iconError)+" "+msg)
}

// cancelled reports whether the spinner ended because its context did.
func (s *loadSpinner) cancelled() bool {
	return s != nil && s.parent.Err() != nil
}

func (s *loadSpinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}
