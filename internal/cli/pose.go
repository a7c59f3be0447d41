package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// ParsePose reads "x y yaw" into a planar pose. Missing trailing values are
// zero, so an empty line is the origin.
func ParsePose(s string) (dog.Pose3DEuler, error) {
	fields := strings.Fields(s)
	if len(fields) > 3 {
		return dog.Pose3DEuler{}, fmt.Errorf("want at most 3 values (x y yaw), got %d", len(fields))
	}
	var v [3]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return dog.Pose3DEuler{}, fmt.Errorf("parse %q: %w", f, err)
		}
		v[i] = n
	}
	return dog.Pose2D(v[0], v[1], v[2]), nil
}

// PromptPose asks for a planar pose.
func PromptPose(label string) (dog.Pose3DEuler, error) {
	line, err := Prompt(label + " (x y yaw): ")
	if err != nil {
		return dog.Pose3DEuler{}, err
	}
	return ParsePose(line)
}
