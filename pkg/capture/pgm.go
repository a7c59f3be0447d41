package capture

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// WritePGM writes a map occupancy image as binary PGM (P5).
func WritePGM(w io.Writer, img dog.MapImageData) error {
	if img.Width == 0 || img.Height == 0 {
		return fmt.Errorf("capture: empty map image %dx%d", img.Width, img.Height)
	}
	if want := int(img.Width) * int(img.Height); len(img.Image) != want {
		return fmt.Errorf("capture: map image size mismatch: expected %d, got %d", want, len(img.Image))
	}
	maxGray := img.MaxGrayValue
	if maxGray == 0 || maxGray > 255 {
		maxGray = 255
	}
	if _, err := fmt.Fprintf(w, "P5\n%d %d\n%d\n", img.Width, img.Height, maxGray); err != nil {
		return err
	}
	_, err := w.Write(img.Image)
	return err
}

// SafeName keeps letters, digits, spaces, '-' and '_' and turns spaces into
// underscores. It returns "" when nothing usable is left.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")
}
