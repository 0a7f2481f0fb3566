package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/tools"
)

// sparkWave is the price trace the status line scrolls through.
var sparkWave = []rune("▁▂▃▅▄▆▇▅▃▄▂▁▃▂")

const sparkWidth = 4

// Spinner draws a scrolling sparkline, the current phase and the elapsed
// time on one line while a turn is in flight.
type Spinner struct {
	out   io.Writer
	style func(...string) string
	now   func() time.Time

	mu      sync.Mutex
	message string
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSpinner creates a spinner that draws on out.
func NewSpinner(out io.Writer, styles Styles) *Spinner {
	return &Spinner{
		out:   out,
		style: styles.SpinnerMessage.Render,
		now:   time.Now,
	}
}

// Start shows message. A running spinner only swaps its message.
func (sp *Spinner) Start(message string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.message = message
	if sp.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	sp.cancel = cancel
	sp.done = make(chan struct{})
	sp.started = sp.now()
	go sp.tick(ctx, sp.done)
}

// SetMessage updates the phase text without restarting the clock.
func (sp *Spinner) SetMessage(message string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.message = message
}

// Stop halts the animation and clears the line. Safe to call when idle.
func (sp *Spinner) Stop() {
	sp.mu.Lock()
	cancel, done := sp.cancel, sp.done
	sp.cancel, sp.done = nil, nil
	sp.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	fmt.Fprint(sp.out, "\r\033[K")
}

func (sp *Spinner) tick(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sp.mu.Lock()
			line := sp.line(n, sp.now().Sub(sp.started))
			sp.mu.Unlock()
			fmt.Fprint(sp.out, line)
		}
	}
}

// line renders frame n. Callers hold sp.mu.
func (sp *Spinner) line(n int, elapsed time.Duration) string {
	return fmt.Sprintf("\r\033[K%s %s %s", sparkFrame(n), sp.style(sp.message), sp.style(fmt.Sprintf("(%ds)", int(elapsed.Seconds()))))
}

// sparkFrame returns the sparkWidth-rune window of sparkWave at offset n.
func sparkFrame(n int) string {
	frame := make([]rune, sparkWidth)
	for i := range frame {
		frame[i] = sparkWave[(n+i)%len(sparkWave)]
	}
	return string(frame)
}

// PhaseMessage returns the spinner message to show after an event: what the
// agent is most likely doing next.
func PhaseMessage(ev agent.Event) string {
	switch p := ev.Payload.(type) {
	case agent.ToolCallPayload:
		switch p.Name {
		case tools.ToolWebSearch:
			return "Searching the web..."
		case tools.ToolCodeExecution:
			return "Running analysis..."
		default:
			return "Planning..."
		}
	case agent.TextDeltaPayload:
		return "Writing..."
	default:
		return "Thinking..."
	}
}
