package perception

import (
	"context"
	"errors"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// FaceGreeter greets recognised people seen by the robot's camera.
type FaceGreeter struct {
	worker
	faces    Identifier
	speaker  Speaker
	debounce *Debouncer
	roster   *Roster
	filter   FaceFilter
}

// FaceFilter rejects frames locally before they cost an upload.
type FaceFilter interface {
	HasFace(jpeg []byte) bool
}

// SetFilter installs f. Call before Run.
func (g *FaceGreeter) SetFilter(f FaceFilter) {
	g.filter = f
}

// NewFaceGreeter creates a greeter. The debouncer may be shared with a
// VoiceCommander so both respect one request cooldown.
func NewFaceGreeter(faces Identifier, speaker Speaker, debounce *Debouncer, roster *Roster, opts ...Option) *FaceGreeter {
	if debounce == nil {
		debounce = NewDebouncer(0, 0)
	}
	return &FaceGreeter{
		worker:   newWorker("face-greeter", opts),
		faces:    faces,
		speaker:  speaker,
		debounce: debounce,
		roster:   roster,
	}
}

// Run handles frames until ctx is done or frames is closed.
func (g *FaceGreeter) Run(ctx context.Context, frames <-chan *dog.CompressedImage) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if f == nil || len(f.Data) == 0 {
				continue
			}
			g.HandleFrame(ctx, f.Data)
		}
	}
}

// HandleFrame processes one JPEG frame and returns the name greeted, or "".
// Frames inside the request cooldown, or rejected by the filter, are dropped
// without a network call.
func (g *FaceGreeter) HandleFrame(ctx context.Context, jpeg []byte) string {
	if g.filter != nil && !g.filter.HasFace(jpeg) {
		return ""
	}
	if !g.debounce.AdmitRequest(g.now()) {
		return ""
	}

	start := g.now()
	name, err := g.faces.Identify(ctx, jpeg)
	g.metrics.PerceptionRequest("face", g.now().Sub(start), err)
	if err != nil {
		if !errors.Is(err, ErrMalformedResponse) {
			g.logger.Warn("face request failed", "error", err)
			return ""
		}
		g.logger.Warn("face response rejected", "error", err)
		name = ""
	}

	if !g.debounce.Observe(name, g.now()) {
		if name != "" {
			g.logger.Debug("already greeted", "name", name)
		}
		return ""
	}

	cmd := g.roster.Greeting(name)
	g.logger.Info("greeting", "name", name, "tts_id", cmd.ID)
	if err := g.speaker.Play(ctx, cmd); err != nil {
		g.logger.Error("play greeting failed", "name", name, "error", err)
	}
	g.metrics.Reaction("greet")
	return name
}
