package teleop

import (
	"context"
	"io"
	"sync"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// mockMotion is a scripted high-level motion controller. After SetGait it
// keeps reporting the old gait for lag queries.
type mockMotion struct {
	mu sync.Mutex

	gait    dog.GaitMode
	pending *dog.GaitMode
	lag     int
	left    int

	getCalls int
	setCalls int
	getErrOn int // fail the n-th GetGait call, 1-based
	getErr   error
	setErr   error

	tricks   []dog.TrickAction
	trickErr error

	sent    []dog.JoystickCommand
	sendErr error

	headEnabled bool
	joystickOn  bool
}

func (m *mockMotion) GetGait(ctx context.Context) (dog.GaitMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil && (m.getErrOn == 0 || m.getErrOn == m.getCalls) {
		return dog.GaitNone, m.getErr
	}
	if m.pending != nil {
		if m.left > 0 {
			m.left--
			return m.gait, nil
		}
		m.gait = *m.pending
		m.pending = nil
	}
	return m.gait, nil
}

func (m *mockMotion) SetGait(ctx context.Context, g dog.GaitMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.pending = &g
	m.left = m.lag
	return nil
}

func (m *mockMotion) ExecuteTrick(ctx context.Context, t dog.TrickAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tricks = append(m.tricks, t)
	return m.trickErr
}

func (m *mockMotion) SendJoyStickCommand(ctx context.Context, cmd dog.JoystickCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, cmd)
	return m.sendErr
}

func (m *mockMotion) EnableHeadMotor(ctx context.Context) error {
	m.mu.Lock()
	m.headEnabled = true
	m.mu.Unlock()
	return nil
}

func (m *mockMotion) DisableHeadMotor(ctx context.Context) error {
	m.mu.Lock()
	m.headEnabled = false
	m.mu.Unlock()
	return nil
}

func (m *mockMotion) EnableJoyStick(ctx context.Context) error {
	m.mu.Lock()
	m.joystickOn = true
	m.mu.Unlock()
	return nil
}

func (m *mockMotion) DisableJoyStick(ctx context.Context) error {
	m.mu.Lock()
	m.joystickOn = false
	m.mu.Unlock()
	return nil
}

func (m *mockMotion) counts() (get, set int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls, m.setCalls
}

func (m *mockMotion) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// recorder collects the order of side effects across fakes.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeSpeaker struct{ rec *recorder }

func (f fakeSpeaker) Play(ctx context.Context, cmd dog.TtsCommand) error {
	f.rec.add("play:" + cmd.ID)
	return nil
}

type fakeCamera struct{ rec *recorder }

func (f fakeCamera) OpenBinocularCamera(ctx context.Context) error {
	f.rec.add("camera:open")
	return nil
}

func (f fakeCamera) CloseBinocularCamera(ctx context.Context) error {
	f.rec.add("camera:close")
	return nil
}

type fakeTricks struct {
	rec *recorder
	err error
}

func (f fakeTricks) ExecuteTrick(ctx context.Context, t dog.TrickAction) error {
	f.rec.add("trick:" + t.String())
	return f.err
}

// scriptedKeys returns keys from a fixed list, then io.EOF.
type scriptedKeys struct {
	keys []byte
	i    int
}

func (s *scriptedKeys) ReadKey() (byte, error) {
	if s.i >= len(s.keys) {
		return 0, io.EOF
	}
	k := s.keys[s.i]
	s.i++
	return k, nil
}

// chanKeys blocks until a key is sent.
type chanKeys chan byte

func (c chanKeys) ReadKey() (byte, error) {
	k, ok := <-c
	if !ok {
		return 0, io.EOF
	}
	return k, nil
}

// restoringKeys blocks like chanKeys and records Restore calls.
type restoringKeys struct {
	chanKeys
	mu       sync.Mutex
	restored int
}

func (r *restoringKeys) Restore() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restored++
	return nil
}

func (r *restoringKeys) restores() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restored
}
