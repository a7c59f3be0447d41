package perception

import (
	"context"
	"errors"
	"strings"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// Command maps spoken keywords to a bound key.
type Command struct {
	Name     string
	Keywords []string
	Key      byte
}

// DefaultCommands are the voice actions of the keyboard operator. Order is
// match priority.
var DefaultCommands = []Command{
	{Name: "shake_hand", Keywords: []string{"握手", "握个手", "握握手"}, Key: 'g'},
	{Name: "dance", Keywords: []string{"跳舞", "跳个舞", "跳支舞"}, Key: 'h'},
}

// NavCommands drive the navigation macros. The bare "导航" keyword comes
// last since the other phrases contain it.
var NavCommands = []Command{
	{Name: "nav_cancel", Keywords: []string{"停止导航", "取消导航", "停止", "取消"}, Key: 'X'},
	{Name: "nav_pause", Keywords: []string{"暂停导航", "暂停"}, Key: 'P'},
	{Name: "nav_resume", Keywords: []string{"继续导航", "恢复导航", "继续", "恢复"}, Key: 'U'},
	{Name: "nav_back", Keywords: []string{"返程", "返回", "返航"}, Key: 'b'},
	{Name: "nav_go", Keywords: []string{"导航到", "导航至", "导航"}, Key: 'n'},
}

// Match returns the first command with a keyword contained in text.
func Match(commands []Command, text string) (Command, bool) {
	if text == "" {
		return Command{}, false
	}
	for _, c := range commands {
		for _, kw := range c.Keywords {
			if strings.Contains(text, kw) {
				return c, true
			}
		}
	}
	return Command{}, false
}

// VoiceCommander turns speech into actions. The same command is not run
// again within the identity cooldown; that window is tracked apart from the
// shared debouncer so a greeted face is not forgotten.
type VoiceCommander struct {
	worker
	speech   Transcriber
	actions  KeyDispatcher
	debounce *Debouncer
	intents  *Debouncer
	commands []Command
}

// NewVoiceCommander creates a commander. A nil commands uses
// DefaultCommands.
func NewVoiceCommander(speech Transcriber, actions KeyDispatcher, debounce *Debouncer, commands []Command, opts ...Option) *VoiceCommander {
	if debounce == nil {
		debounce = NewDebouncer(0, 0)
	}
	if commands == nil {
		commands = DefaultCommands
	}
	return &VoiceCommander{
		worker:   newWorker("voice-commander", opts),
		speech:   speech,
		actions:  actions,
		debounce: debounce,
		intents:  NewDebouncer(0, debounce.identityCooldown),
		commands: commands,
	}
}

// Run handles voice chunks until ctx is done or chunks is closed.
func (v *VoiceCommander) Run(ctx context.Context, chunks <-chan *dog.ByteMultiArray) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-chunks:
			if !ok {
				return nil
			}
			if c == nil || len(c.Data) == 0 {
				continue
			}
			v.HandleChunk(ctx, c.Data)
		}
	}
}

// HandleChunk transcribes one chunk and runs the matching command. It
// returns the command name, or "" when nothing ran.
func (v *VoiceCommander) HandleChunk(ctx context.Context, audio []byte) string {
	if !v.debounce.AdmitRequest(v.now()) {
		return ""
	}

	start := v.now()
	text, err := v.speech.Transcribe(ctx, audio)
	v.metrics.PerceptionRequest("speech", v.now().Sub(start), err)
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			v.logger.Warn("speech response rejected", "error", err)
		} else {
			v.logger.Warn("speech request failed", "error", err)
		}
		return ""
	}

	cmd, ok := Match(v.commands, text)
	if !ok {
		if text != "" {
			v.logger.Info("no command", "text", text)
		}
		return ""
	}

	if !v.intents.Observe(cmd.Name, v.now()) {
		v.logger.Info("voice command suppressed", "text", text, "command", cmd.Name)
		return ""
	}

	v.logger.Info("voice command", "text", text, "command", cmd.Name)
	if err := v.actions.Dispatch(ctx, cmd.Key); err != nil {
		v.logger.Error("voice command failed", "command", cmd.Name, "error", err)
	}
	v.metrics.Reaction(cmd.Name)
	return cmd.Name
}
