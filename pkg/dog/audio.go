package dog

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// Audio controls speech output and the microphone streams.
type Audio struct {
	r *Robot
}

// SwitchTtsVoiceModel selects the speech model and returns the resulting config.
func (a *Audio) SwitchTtsVoiceModel(ctx context.Context, t TtsType) (*GetSpeechConfig, error) {
	var cfg GetSpeechConfig
	if err := a.r.call(ctx, protocol.MethodSwitchTtsModel, TtsModelParams{Type: t}, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (a *Audio) GetVoiceConfig(ctx context.Context) (*GetSpeechConfig, error) {
	var cfg GetSpeechConfig
	if err := a.r.call(ctx, protocol.MethodGetVoiceConfig, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (a *Audio) SetVoiceConfig(ctx context.Context, cfg SetSpeechConfig) error {
	return a.r.call(ctx, protocol.MethodSetVoiceConfig, cfg, nil)
}

// Play queues a TTS request according to its priority and mode.
func (a *Audio) Play(ctx context.Context, cmd TtsCommand) error {
	return a.r.call(ctx, protocol.MethodPlay, cmd, nil)
}

// Stop cancels the current TTS playback.
func (a *Audio) Stop(ctx context.Context) error {
	return a.r.call(ctx, protocol.MethodStop, nil, nil)
}

// SetVolume sets the speaker volume.
func (a *Audio) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return newStatus(InternalError, "volume %d out of range", volume)
	}
	return a.r.call(ctx, protocol.MethodSetVolume, VolumeParams{Volume: volume}, nil)
}

func (a *Audio) GetVolume(ctx context.Context) (int, error) {
	var p VolumeParams
	if err := a.r.call(ctx, protocol.MethodGetVolume, nil, &p); err != nil {
		return 0, err
	}
	return p.Volume, nil
}

// ControlVoiceStream turns the raw and beam-formed microphone streams on or off.
func (a *Audio) ControlVoiceStream(ctx context.Context, raw, bf bool) error {
	return a.r.call(ctx, protocol.MethodControlVoiceStream, VoiceStreamParams{Raw: raw, Bf: bf}, nil)
}

func (a *Audio) SubscribeOriginVoiceData() (*Stream[*ByteMultiArray], error) {
	return subscribe[ByteMultiArray](a.r, protocol.TopicOriginVoice)
}

func (a *Audio) UnsubscribeOriginVoiceData() error {
	return a.r.unsubscribe(protocol.TopicOriginVoice)
}

// SubscribeBfVoiceData starts the beam-formed voice stream, which carries one
// utterance per sample.
func (a *Audio) SubscribeBfVoiceData() (*Stream[*ByteMultiArray], error) {
	return subscribe[ByteMultiArray](a.r, protocol.TopicBfVoice)
}

func (a *Audio) UnsubscribeBfVoiceData() error {
	return a.r.unsubscribe(protocol.TopicBfVoice)
}

// Say plays text at high priority, discarding queued but unplayed requests.
func (a *Audio) Say(ctx context.Context, id, text string) error {
	if text == "" {
		return fmt.Errorf("dog: empty tts content")
	}
	return a.Play(ctx, TtsCommand{ID: id, Content: text, Priority: TtsPriorityHigh, Mode: TtsModeClearBuffer})
}
