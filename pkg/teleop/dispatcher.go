package teleop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

// ErrExit is returned by Dispatch when the operator pressed ESC.
var ErrExit = errors.New("teleop: exit requested")

const (
	KeyEsc   byte = 27
	KeySpace byte = ' '

	// DefaultKeyDelay is the pause between two keys in Run.
	DefaultKeyDelay = 10 * time.Millisecond
)

// Kind selects how a Binding is executed.
type Kind int

const (
	// KindTrick zeroes the joystick and runs a trick, blocking until done.
	KindTrick Kind = iota
	// KindGait requests a gait, optionally making it the movement target.
	KindGait
	// KindMove brings the robot into the target gait, then stores a joystick.
	KindMove
	// KindFunc runs an arbitrary action.
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindTrick:
		return "trick"
	case KindGait:
		return "gait"
	case KindMove:
		return "move"
	case KindFunc:
		return "func"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Binding is the action bound to one key.
type Binding struct {
	Kind     Kind
	Help     string
	Trick    dog.TrickAction
	Gait     dog.GaitMode
	Retarget bool
	Joystick dog.JoystickCommand
	Func     func(ctx context.Context) error
}

// TrickBinding runs trick.
func TrickBinding(trick dog.TrickAction, help string) Binding {
	return Binding{Kind: KindTrick, Trick: trick, Help: help}
}

// GaitBinding requests gait. With retarget the gait also becomes the target
// that movement keys gate on.
func GaitBinding(gait dog.GaitMode, retarget bool, help string) Binding {
	return Binding{Kind: KindGait, Gait: gait, Retarget: retarget, Help: help}
}

// MoveBinding stores the given stick axes once the target gait is reached.
func MoveBinding(leftX, leftY, rightX, rightY float64, help string) Binding {
	return Binding{
		Kind:     KindMove,
		Joystick: dog.JoystickCommand{LeftX: leftX, LeftY: leftY, RightX: rightX, RightY: rightY},
		Help:     help,
	}
}

// FuncBinding runs fn.
func FuncBinding(fn func(ctx context.Context) error, help string) Binding {
	return Binding{Kind: KindFunc, Func: fn, Help: help}
}

// KeyBinding pairs a key with its binding.
type KeyBinding struct {
	Key byte
	Binding
}

// Keymap is an ordered set of key bindings.
type Keymap []KeyBinding

// KeyReader yields one key at a time, blocking until a key is available.
type KeyReader interface {
	ReadKey() (byte, error)
}

// Dispatcher maps keys to actions. Discrete actions run synchronously on the
// caller's goroutine, so a trick blocks further input until it finishes.
type Dispatcher struct {
	motion   Motion
	state    *CommandState
	gate     *GaitGate
	keyDelay time.Duration
	logger   *slog.Logger
	metrics  *telemetry.Metrics

	bindings map[byte]Binding
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithKeyDelay sets the pause after each key. Zero disables it.
func WithKeyDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.keyDelay = delay }
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func WithDispatcherMetrics(m *telemetry.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher with no bindings.
func NewDispatcher(motion Motion, state *CommandState, gate *GaitGate, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		motion:   motion,
		state:    state,
		gate:     gate,
		keyDelay: DefaultKeyDelay,
		logger:   log.L(),
		bindings: make(map[byte]Binding),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bind binds key, replacing any previous binding. ESC cannot be rebound.
func (d *Dispatcher) Bind(key byte, b Binding) {
	if key == KeyEsc {
		return
	}
	d.bindings[key] = b
}

// BindAll binds every entry of km.
func (d *Dispatcher) BindAll(km Keymap) {
	for _, kb := range km {
		d.Bind(kb.Key, kb.Binding)
	}
}

// Binding returns the binding for key.
func (d *Dispatcher) Binding(key byte) (Binding, bool) {
	b, ok := d.bindings[key]
	return b, ok
}

// Keymap returns the bindings in key order.
func (d *Dispatcher) Keymap() Keymap {
	keys := make([]int, 0, len(d.bindings))
	for k := range d.bindings {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)

	km := make(Keymap, 0, len(keys))
	for _, k := range keys {
		km = append(km, KeyBinding{Key: byte(k), Binding: d.bindings[byte(k)]})
	}
	return km
}

// Help lists the bound keys in key order.
func (d *Dispatcher) Help() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %-8s %s\n", "ESC", "Exit program")
	for _, kb := range d.Keymap() {
		fmt.Fprintf(&sb, "  %-8s %s\n", KeyName(kb.Key), kb.Help)
	}
	return sb.String()
}

// Dispatch executes the action bound to key. ESC stops the command state and
// returns ErrExit. Unknown keys are logged and ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, key byte) error {
	if key == KeyEsc {
		d.state.Stop()
		return ErrExit
	}

	b, ok := d.bindings[key]
	d.metrics.Key(ok)
	if !ok {
		d.logger.Info("unknown key", "key", KeyName(key), "code", int(key))
		return nil
	}

	switch b.Kind {
	case KindTrick:
		d.state.ZeroJoystick()
		err := d.motion.ExecuteTrick(ctx, b.Trick)
		d.metrics.Trick(b.Trick.String(), err)
		if err != nil {
			return fmt.Errorf("execute trick %s: %w", b.Trick, err)
		}
		d.logger.Info("trick executed", "trick", b.Trick)

	case KindGait:
		if b.Retarget {
			d.state.SetTarget(b.Gait)
			d.metrics.GaitTarget(int(b.Gait))
		}
		if err := d.motion.SetGait(ctx, b.Gait); err != nil {
			return fmt.Errorf("set gait %s: %w", b.Gait, err)
		}
		d.logger.Info("gait set", "gait", b.Gait)

	case KindMove:
		if err := d.gate.EnsureTarget(ctx); err != nil {
			return fmt.Errorf("move aborted: %w", err)
		}
		d.state.SetJoystick(b.Joystick)

	case KindFunc:
		if b.Func == nil {
			return nil
		}
		if err := b.Func(ctx); err != nil {
			return fmt.Errorf("%s: %w", b.Help, err)
		}

	default:
		return fmt.Errorf("unsupported binding %s", b.Kind)
	}
	return nil
}

// Run reads and dispatches keys until the command state stops, ESC is
// pressed, the reader is exhausted or ctx is done. Action failures are
// logged and do not end the loop.
func (d *Dispatcher) Run(ctx context.Context, r KeyReader) error {
	for d.state.Running() {
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := r.ReadKey()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.state.Stop()
				return nil
			}
			return fmt.Errorf("read key: %w", err)
		}

		if err := d.Dispatch(ctx, key); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			d.logger.Warn("key action failed", "key", KeyName(key), "error", err)
		}

		if d.keyDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.keyDelay):
			}
		}
	}
	return nil
}

// KeyName renders key for help and logs.
func KeyName(key byte) string {
	switch key {
	case KeyEsc:
		return "ESC"
	case KeySpace:
		return "space"
	}
	if key < 32 || key > 126 {
		return fmt.Sprintf("0x%02x", key)
	}
	return string(rune(key))
}
