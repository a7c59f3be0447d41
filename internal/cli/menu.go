package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

// Menu is a key menu for the controller examples. Entries run one at a time
// on the dispatcher; '?' prints the menu and ESC leaves it.
type Menu struct {
	Title string

	state *teleop.CommandState
	disp  *teleop.Dispatcher
	out   io.Writer
}

// NewMenu returns an empty menu with the help key bound.
func NewMenu(title string, logger *slog.Logger) *Menu {
	m := &Menu{
		Title: title,
		state: teleop.NewCommandState(dog.GaitDownClimbStairs),
		out:   os.Stdout,
	}
	m.disp = teleop.NewDispatcher(nil, m.state, nil,
		teleop.WithKeyDelay(0),
		teleop.WithDispatcherLogger(logger),
	)
	m.disp.Bind('?', teleop.FuncBinding(func(context.Context) error {
		m.PrintHelp()
		return nil
	}, "Show this menu"))
	return m
}

// SetOutput redirects the help text.
func (m *Menu) SetOutput(w io.Writer) { m.out = w }

// Add binds key to fn.
func (m *Menu) Add(key byte, help string, fn func(ctx context.Context) error) {
	m.disp.Bind(key, teleop.FuncBinding(fn, help))
}

// Dispatch runs the entry bound to key.
func (m *Menu) Dispatch(ctx context.Context, key byte) error {
	return m.disp.Dispatch(ctx, key)
}

// PrintHelp writes the title and key list.
func (m *Menu) PrintHelp() {
	fmt.Fprintf(m.out, "\n%s\n%s", m.Title, m.disp.Help())
}

// Run prints the menu and dispatches keys from r until ESC, EOF or ctx is
// done. A read still blocked on the terminal is abandoned and the terminal
// restored.
func (m *Menu) Run(ctx context.Context, r teleop.KeyReader) error {
	if rs, ok := r.(teleop.Restorer); ok {
		defer rs.Restore()
	}
	m.PrintHelp()
	done := make(chan error, 1)
	go func() { done <- m.disp.Run(ctx, r) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		m.state.Stop()
		return nil
	}
}
