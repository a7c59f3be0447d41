package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

func TestParsePose(t *testing.T) {
	tests := []struct {
		in   string
		want dog.Pose3DEuler
		err  bool
	}{
		{"", dog.Pose2D(0, 0, 0), false},
		{"1.5", dog.Pose2D(1.5, 0, 0), false},
		{" 1 -2  3.14 ", dog.Pose2D(1, -2, 3.14), false},
		{"1 2 3 4", dog.Pose3DEuler{}, true},
		{"1 north", dog.Pose3DEuler{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePose(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
