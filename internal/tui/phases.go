package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// PhaseLine shows which phase of a multi-phase mesh operation is running,
// for example fetching an auth key and then joining the mesh. It redraws a
// single line in place until Finish is called.
type PhaseLine struct {
	w      io.Writer
	phases []string
	frames []string
	now    func() time.Time
	every  time.Duration

	mu      sync.Mutex
	current int
	began   time.Time
	frame   int

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPhaseLine returns a line for the given phases. Nothing is drawn until
// the first call to Next.
func NewPhaseLine(w io.Writer, phases ...string) *PhaseLine {
	return &PhaseLine{
		w:       w,
		phases:  phases,
		frames:  spinner.MiniDot.Frames,
		now:     time.Now,
		every:   spinner.MiniDot.FPS,
		current: -1,
		stop:    make(chan struct{}),
	}
}

// Next moves to the following phase and starts redrawing on the first call.
// Calls past the last phase are ignored.
func (p *PhaseLine) Next() {
	p.mu.Lock()
	if p.current+1 >= len(p.phases) {
		p.mu.Unlock()
		return
	}
	p.current++
	p.began = p.now()
	first := p.current == 0
	p.mu.Unlock()

	if first {
		p.wg.Add(1)
		go p.loop()
	}
}

// Finish stops redrawing and clears the line. When err is non-nil the phase
// that was running is reported on its own line.
func (p *PhaseLine) Finish(err error) {
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.current < 0 {
			return
		}
		fmt.Fprint(p.w, "\r\033[K")
		if err != nil {
			fmt.Fprintf(p.w, "%s failed after %s\n", p.phases[p.current], shortDuration(p.now().Sub(p.began)))
		}
	})
}

func (p *PhaseLine) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.every)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			fmt.Fprint(p.w, "\r\033[K"+p.line())
			p.frame++
			p.mu.Unlock()
		}
	}
}

// line renders the current state. Callers hold mu.
func (p *PhaseLine) line() string {
	if p.current < 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.frames[p.frame%len(p.frames)])
	if len(p.phases) > 1 {
		fmt.Fprintf(&b, " [%d/%d]", p.current+1, len(p.phases))
	}
	fmt.Fprintf(&b, " %s (%s)", p.phases[p.current], shortDuration(p.now().Sub(p.began)))
	return b.String()
}
