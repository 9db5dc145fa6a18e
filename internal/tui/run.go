package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until both have finished. workFn receives a send callback that
// wraps tea.Program.Send with a small yield to give the renderer time to
// draw between updates. When the user quits early, stop is called so workFn
// can wind down.
func RunWithWork(out io.Writer, model ProgressModel, stop func(), workFn func(send func(tea.Msg))) error {
	p := tea.NewProgram(model, tea.WithOutput(out))
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		workFn(func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})

		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if stop != nil {
		stop()
	}
	<-finished
	if err != nil {
		return err
	}
	if m, ok := finalModel.(ProgressModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
