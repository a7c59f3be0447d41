package teleop

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const keyCtrlC byte = 3

// Keyboard reads single key presses from a terminal. The terminal is put in
// raw mode for each read and restored right after, so log output in between
// renders normally.
type Keyboard struct {
	f *os.File

	mu  sync.Mutex
	old *term.State

	isTerminal func(fd int) bool
	makeRaw    func(fd int) (*term.State, error)
	restore    func(fd int, state *term.State) error
}

// Restorer is implemented by key readers that change terminal state.
type Restorer interface {
	Restore() error
}

var _ Restorer = (*Keyboard)(nil)

// NewKeyboard reads from f, usually os.Stdin.
func NewKeyboard(f *os.File) *Keyboard {
	return &Keyboard{
		f:          f,
		isTerminal: term.IsTerminal,
		makeRaw:    term.MakeRaw,
		restore:    term.Restore,
	}
}

// ReadKey blocks for one byte. Raw mode swallows SIGINT, so Ctrl-C is
// reported as ESC.
func (k *Keyboard) ReadKey() (byte, error) {
	fd := int(k.f.Fd())
	if k.isTerminal(fd) {
		old, err := k.makeRaw(fd)
		if err != nil {
			return 0, err
		}
		k.mu.Lock()
		k.old = old
		k.mu.Unlock()
		defer k.Restore()
	}

	var b [1]byte
	if _, err := io.ReadFull(k.f, b[:]); err != nil {
		return 0, err
	}
	if b[0] == keyCtrlC {
		return KeyEsc, nil
	}
	return b[0], nil
}

// Restore puts the terminal back into the mode it had before a pending
// ReadKey. It is safe to call while that read is still blocked, and a no-op
// when the terminal is not raw.
func (k *Keyboard) Restore() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.old == nil {
		return nil
	}
	err := k.restore(int(k.f.Fd()), k.old)
	k.old = nil
	return err
}

// LineReader reads line-buffered input for menu programs. ReadKey returns
// the first byte of the next non-empty line.
type LineReader struct {
	r *bufio.Reader
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line without its trailing newline.
func (l *LineReader) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (l *LineReader) ReadKey() (byte, error) {
	for {
		line, err := l.ReadLine()
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "esc" || line == "ESC" {
			return KeyEsc, nil
		}
		return line[0], nil
	}
}
