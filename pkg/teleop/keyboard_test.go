package teleop

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

// fakeTTY makes a pipe look like a terminal and counts mode changes.
type fakeTTY struct {
	mu       sync.Mutex
	raw      chan struct{}
	restores int
}

func newFakeKeyboard(t *testing.T) (*Keyboard, *os.File, *fakeTTY) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(); w.Close() })

	tty := &fakeTTY{raw: make(chan struct{}, 1)}
	kb := NewKeyboard(r)
	kb.isTerminal = func(int) bool { return true }
	kb.makeRaw = func(int) (*term.State, error) {
		tty.raw <- struct{}{}
		return &term.State{}, nil
	}
	kb.restore = func(int, *term.State) error {
		tty.mu.Lock()
		tty.restores++
		tty.mu.Unlock()
		return nil
	}
	return kb, w, tty
}

func (f *fakeTTY) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restores
}

func TestKeyboardRestoreWhileReadBlocked(t *testing.T) {
	kb, w, tty := newFakeKeyboard(t)

	got := make(chan byte, 1)
	go func() {
		k, _ := kb.ReadKey()
		got <- k
	}()

	select {
	case <-tty.raw:
	case <-time.After(time.Second):
		t.Fatal("ReadKey never entered raw mode")
	}
	require.NoError(t, kb.Restore())
	assert.Equal(t, 1, tty.count())

	_, err := w.Write([]byte{'w'})
	require.NoError(t, err)
	select {
	case k := <-got:
		assert.Equal(t, byte('w'), k)
	case <-time.After(time.Second):
		t.Fatal("ReadKey did not return")
	}
	assert.Equal(t, 1, tty.count(), "terminal restored twice")
	assert.NoError(t, kb.Restore())
	assert.Equal(t, 1, tty.count())
}

func TestKeyboardCtrlCIsEsc(t *testing.T) {
	kb, w, tty := newFakeKeyboard(t)
	_, err := w.Write([]byte{keyCtrlC})
	require.NoError(t, err)

	k, err := kb.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, KeyEsc, k)
	<-tty.raw
	assert.Equal(t, 1, tty.count())
}
