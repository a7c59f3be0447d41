package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

type keys struct{ seq []byte }

func (k *keys) ReadKey() (byte, error) {
	if len(k.seq) == 0 {
		return 0, io.EOF
	}
	b := k.seq[0]
	k.seq = k.seq[1:]
	return b, nil
}

func TestMenuRunsEntriesUntilEsc(t *testing.T) {
	var out bytes.Buffer
	m := NewMenu("Audio", log.Discard())
	m.SetOutput(&out)

	var got []string
	m.Add('1', "Get volume", func(context.Context) error { got = append(got, "get"); return nil })
	m.Add('2', "Set volume", func(context.Context) error { return errors.New("rejected") })
	m.Add('3', "Stop", func(context.Context) error { got = append(got, "stop"); return nil })

	err := m.Run(context.Background(), &keys{seq: []byte{'1', '2', '?', 'z', teleop.KeyEsc, '3'}})
	require.NoError(t, err)

	// A failing entry does not end the menu; nothing runs after ESC.
	assert.Equal(t, []string{"get"}, got)
	assert.Contains(t, out.String(), "Audio")
	assert.Contains(t, out.String(), "Get volume")
	assert.Contains(t, out.String(), "Show this menu")
}

func TestMenuStopsOnEOF(t *testing.T) {
	m := NewMenu("Sensor", log.Discard())
	m.SetOutput(io.Discard)
	require.NoError(t, m.Run(context.Background(), &keys{}))
}

func TestReportPassesErrorThrough(t *testing.T) {
	err := errors.New("boom")
	assert.Same(t, err, Report(log.Discard(), "set volume", err))
	assert.NoError(t, Report(log.Discard(), "set volume", nil))
}
