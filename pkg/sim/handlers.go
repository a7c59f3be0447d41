package sim

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

type handlerFunc func(s *Server, sess *session, msg *protocol.Message) (any, error)

var handlers = map[string]handlerFunc{
	protocol.MethodHello:    hello,
	protocol.MethodGoodbye:  noop,
	protocol.MethodGetLevel: getLevel,
	protocol.MethodSetLevel: setLevel,

	protocol.MethodSetGait:              setGait,
	protocol.MethodGetGait:              getGait,
	protocol.MethodExecuteTrick:         executeTrick,
	protocol.MethodJoystick:             joystick,
	protocol.MethodEnableJoystick:       noop,
	protocol.MethodDisableJoystick:      noop,
	protocol.MethodGetAllGaitSpeedRatio: getAllGaitSpeedRatio,
	protocol.MethodSetGaitSpeedRatio:    setGaitSpeedRatio,
	protocol.MethodGetHeadMotor:         getHeadMotor,
	protocol.MethodEnableHeadMotor:      headMotor(true),
	protocol.MethodDisableHeadMotor:     headMotor(false),
	protocol.MethodLegCommand:           legCommand,

	protocol.MethodSwitchTtsModel:     switchTtsModel,
	protocol.MethodGetVoiceConfig:     getVoiceConfig,
	protocol.MethodSetVoiceConfig:     setVoiceConfig,
	protocol.MethodPlay:               play,
	protocol.MethodStop:               noop,
	protocol.MethodSetVolume:          setVolume,
	protocol.MethodGetVolume:          getVolume,
	protocol.MethodControlVoiceStream: controlVoiceStream,

	protocol.MethodOpenChannelSwitch:   channelSwitch(true),
	protocol.MethodCloseChannelSwitch:  channelSwitch(false),
	protocol.MethodOpenLaserScan:       camera("laser", true),
	protocol.MethodCloseLaserScan:      camera("laser", false),
	protocol.MethodOpenRgbdCamera:      camera("rgbd", true),
	protocol.MethodCloseRgbdCamera:     camera("rgbd", false),
	protocol.MethodOpenBinocularCamera: camera("binocular", true),
	protocol.MethodCloseBinocularCam:   camera("binocular", false),

	protocol.MethodSwitchToIdle:     switchToIdle,
	protocol.MethodSwitchToLocation: switchToLocation,
	protocol.MethodStartMapping:     startMapping,
	protocol.MethodCancelMapping:    cancelMapping,
	protocol.MethodSaveMap:          saveMap,
	protocol.MethodLoadMap:          loadMap,
	protocol.MethodDeleteMap:        deleteMap,
	protocol.MethodGetAllMapInfo:    getAllMapInfo,
	protocol.MethodInitPose:         initPose,
	protocol.MethodGetLocalization:  getLocalization,
	protocol.MethodActivateNavMode:  activateNavMode,
	protocol.MethodSetNavTarget:     setNavTarget,
	protocol.MethodPauseNav:         navTransition(dog.NavStatusPause),
	protocol.MethodResumeNav:        navTransition(dog.NavStatusContinue),
	protocol.MethodCancelNav:        navTransition(dog.NavStatusCancel),
	protocol.MethodGetNavStatus:     getNavStatus,

	protocol.MethodGetState: getState,
}

func serviceError(format string, args ...any) error {
	return &dog.Status{Code: dog.ServiceError, Message: fmt.Sprintf(format, args...)}
}

func badParams(msg *protocol.Message, err error) error {
	return &dog.Status{Code: dog.InternalError, Message: fmt.Sprintf("%s: bad params: %v", msg.Method, err)}
}

func noop(*Server, *session, *protocol.Message) (any, error) { return nil, nil }

func hello(s *Server, sess *session, msg *protocol.Message) (any, error) {
	var p dog.HelloParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	sess.LocalIP = p.LocalIP
	s.logger.Info("hello", "session", sess.ID, "local_ip", p.LocalIP, "sdk", p.SDKVersion)
	return nil, nil
}

func getLevel(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return dog.LevelParams{Level: m.level}, nil
}

func setLevel(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.LevelParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	if p.Level != dog.LevelHigh && p.Level != dog.LevelLow {
		return nil, serviceError("invalid controller level %d", p.Level)
	}
	m := s.model
	m.mu.Lock()
	m.level = p.Level
	m.mu.Unlock()
	return nil, nil
}

func setGait(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.GaitParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	if err := s.model.setGait(p.Gait); err != nil {
		return nil, err
	}
	s.logger.Debug("set gait", "gait", p.Gait)
	return nil, nil
}

func getGait(s *Server, _ *session, _ *protocol.Message) (any, error) {
	return dog.GaitParams{Gait: s.model.getGait()}, nil
}

func executeTrick(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.TrickParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	if !p.Trick.Valid() || p.Trick == dog.TrickNone {
		return nil, serviceError("unsupported trick %d", p.Trick)
	}
	m := s.model
	m.mu.Lock()
	m.tricks = append(m.tricks, p.Trick)
	m.mu.Unlock()

	s.logger.Debug("execute trick", "trick", p.Trick)
	if s.cfg.TrickDelay > 0 {
		time.Sleep(s.cfg.TrickDelay)
	}
	return nil, nil
}

func joystick(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var cmd dog.JoystickCommand
	if err := msg.ParseData(&cmd); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	m.joystick = cmd
	m.joystickSeen++
	m.mu.Unlock()
	return nil, nil
}

func getAllGaitSpeedRatio(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	all := dog.AllGaitSpeedRatio{GaitSpeedRatios: make(map[dog.GaitMode]dog.GaitSpeedRatio, len(m.speedRatios))}
	for g, r := range m.speedRatios {
		all.GaitSpeedRatios[g] = r
	}
	return all, nil
}

func setGaitSpeedRatio(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.SpeedRatioParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	if !p.Gait.Valid() {
		return nil, serviceError("unsupported gait %d", p.Gait)
	}
	m := s.model
	m.mu.Lock()
	m.speedRatios[p.Gait] = p.Ratio
	m.mu.Unlock()
	return nil, nil
}

func getHeadMotor(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return dog.EnabledResult{Enabled: m.headMotor}, nil
}

func headMotor(on bool) handlerFunc {
	return func(s *Server, _ *session, _ *protocol.Message) (any, error) {
		m := s.model
		m.mu.Lock()
		m.headMotor = on
		m.mu.Unlock()
		return nil, nil
	}
}

func legCommand(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var cmd dog.LegJointCommand
	if err := msg.ParseData(&cmd); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.level != dog.LevelLow {
		return nil, serviceError("leg commands require LowLevel control")
	}
	m.legCommand = cmd
	return nil, nil
}

func (m *model) speechConfigLocked() dog.GetSpeechConfig {
	return dog.GetSpeechConfig{
		SpeakerConfig: dog.SpeakerConfig{
			Data: map[string][][]string{
				"cn": {{"zh_female_1", "Xiaomei"}, {"zh_male_1", "Xiaoming"}},
				"en": {{"en_female_1", "Emma"}},
			},
			Selected:     dog.SpeakerConfigSelected{Region: m.voice.Region, SpeakerID: m.voice.SpeakerID},
			SpeakerSpeed: m.voice.SpeakerSpeed,
		},
		BotConfig: dog.BotConfig{
			Data:       map[string]dog.BotInfo{"default": {Name: "assistant", Workflow: "wf-default"}},
			CustomData: m.voice.CustomBot,
			Selected:   dog.BotConfigSelected{BotID: m.voice.BotID},
		},
		WakeupConfig: dog.WakeupConfig{
			Name: m.voice.WakeupName,
			Data: map[string]string{m.voice.WakeupName: "xiao kai"},
		},
		DialogConfig: dog.DialogConfig{
			IsFrontDoa:         m.voice.IsFrontDoa,
			IsFullduplexEnable: m.voice.IsFullduplexEnable,
			IsEnable:           m.voice.IsEnable,
			IsDoaEnable:        m.voice.IsDoaEnable,
		},
		TtsType: m.ttsType,
	}
}

func switchTtsModel(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.TtsModelParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	if p.Type != dog.TtsTypeDoubao && p.Type != dog.TtsTypeGoogle {
		return nil, serviceError("unsupported tts model %d", p.Type)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttsType = p.Type
	return m.speechConfigLocked(), nil
}

func getVoiceConfig(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speechConfigLocked(), nil
}

func setVoiceConfig(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var cfg dog.SetSpeechConfig
	if err := msg.ParseData(&cfg); err != nil {
		return nil, badParams(msg, err)
	}
	if cfg.SpeakerSpeed != 0 && (cfg.SpeakerSpeed < 1 || cfg.SpeakerSpeed > 2) {
		return nil, serviceError("speaker speed %.2f outside [1,2]", cfg.SpeakerSpeed)
	}
	m := s.model
	m.mu.Lock()
	m.voice = cfg
	m.mu.Unlock()
	return nil, nil
}

func play(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var cmd dog.TtsCommand
	if err := msg.ParseData(&cmd); err != nil {
		return nil, badParams(msg, err)
	}
	if cmd.Content == "" {
		return nil, serviceError("empty tts content")
	}
	m := s.model
	m.mu.Lock()
	m.spoken = append(m.spoken, cmd)
	m.mu.Unlock()
	s.logger.Info("tts", "id", cmd.ID, "content", cmd.Content, "priority", cmd.Priority, "mode", cmd.Mode)
	return nil, nil
}

func setVolume(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.VolumeParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	m.volume = p.Volume
	m.mu.Unlock()
	return nil, nil
}

func getVolume(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return dog.VolumeParams{Volume: m.volume}, nil
}

func controlVoiceStream(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.VoiceStreamParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	m.voiceStream.raw, m.voiceStream.bf = p.Raw, p.Bf
	m.mu.Unlock()
	return nil, nil
}

func channelSwitch(on bool) handlerFunc {
	return func(s *Server, _ *session, _ *protocol.Message) (any, error) {
		m := s.model
		m.mu.Lock()
		m.channelOpen = on
		m.mu.Unlock()
		return nil, nil
	}
}

func camera(name string, on bool) handlerFunc {
	return func(s *Server, _ *session, _ *protocol.Message) (any, error) {
		m := s.model
		m.mu.Lock()
		m.cameras[name] = on
		m.mu.Unlock()
		return nil, nil
	}
}

func switchToIdle(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	m.locating = false
	m.mapping = false
	m.mu.Unlock()
	return nil, nil
}

func switchToLocation(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentMap == "" {
		return nil, serviceError("no map loaded")
	}
	m.mapping = false
	m.locating = true
	return nil, nil
}

func startMapping(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	m.mapping = true
	m.locating = false
	m.mu.Unlock()
	return nil, nil
}

func cancelMapping(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mapping {
		return nil, serviceError("not mapping")
	}
	m.mapping = false
	return nil, nil
}

func saveMap(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.MapNameParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mapping {
		return nil, serviceError("not mapping")
	}
	m.maps[p.Name] = dog.MapInfo{
		MapName: p.Name,
		MapMetaData: dog.MapMetaData{
			Resolution:   0.05,
			Origin:       dog.Pose2D(-1.6, -1.2, 0),
			MapImageData: generateMapImage(64, 48),
		},
	}
	m.mapping = false
	m.currentMap = p.Name
	return nil, nil
}

func loadMap(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.MapNameParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.maps[p.Name]; !ok {
		return nil, serviceError("map %q not found", p.Name)
	}
	m.currentMap = p.Name
	m.localization = dog.LocalizationInfo{}
	return nil, nil
}

func deleteMap(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.MapNameParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.maps[p.Name]; !ok {
		return nil, serviceError("map %q not found", p.Name)
	}
	delete(m.maps, p.Name)
	if m.currentMap == p.Name {
		m.currentMap = ""
		m.locating = false
	}
	return nil, nil
}

func getAllMapInfo(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	all := dog.AllMapInfo{CurrentMapName: m.currentMap}
	for _, info := range m.maps {
		all.MapInfos = append(all.MapInfos, info)
	}
	return all, nil
}

func initPose(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var pose dog.Pose3DEuler
	if err := msg.ParseData(&pose); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.locating {
		return nil, serviceError("not in localization mode")
	}
	m.localization = dog.LocalizationInfo{IsLocalization: true, Pose: pose}
	return nil, nil
}

func getLocalization(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localization, nil
}

func activateNavMode(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var p dog.NavModeParams
	if err := msg.ParseData(&p); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Mode == dog.NavModeGridMap && m.currentMap == "" {
		return nil, serviceError("grid map navigation needs a loaded map")
	}
	m.navMode = p.Mode
	return nil, nil
}

func setNavTarget(s *Server, _ *session, msg *protocol.Message) (any, error) {
	var target dog.NavTarget
	if err := msg.ParseData(&target); err != nil {
		return nil, badParams(msg, err)
	}
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.navMode != dog.NavModeGridMap {
		return nil, serviceError("navigation mode not active")
	}
	if !m.localization.IsLocalization {
		return nil, serviceError("robot not localized")
	}
	m.nav = dog.NavStatus{ID: target.ID, Status: dog.NavStatusRunning, Message: "navigating"}
	m.navGoal = target.Goal
	m.navProgress = 0
	return nil, nil
}

func navTransition(to dog.NavStatusType) handlerFunc {
	return func(s *Server, _ *session, _ *protocol.Message) (any, error) {
		m := s.model
		m.mu.Lock()
		defer m.mu.Unlock()
		active := m.nav.Status == dog.NavStatusRunning || m.nav.Status == dog.NavStatusContinue
		switch {
		case to == dog.NavStatusContinue && m.nav.Status != dog.NavStatusPause:
			return nil, serviceError("no paused navigation task")
		case to != dog.NavStatusContinue && !active && m.nav.Status != dog.NavStatusPause:
			return nil, serviceError("no active navigation task")
		}
		m.nav.Status = to
		m.nav.Message = to.String()
		return nil, nil
	}
}

func getNavStatus(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nav, nil
}

func getState(s *Server, _ *session, _ *protocol.Message) (any, error) {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return dog.RobotState{Faults: append([]dog.Fault{}, m.faults...), BmsData: m.bms}, nil
}
