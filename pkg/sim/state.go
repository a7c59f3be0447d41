package sim

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// navTicks is how many event ticks a navigation task takes to reach its goal.
const navTicks = 20

// Snapshot is the externally visible state of the simulated robot.
type Snapshot struct {
	Level        dog.ControllerLevel `json:"level"`
	Gait         dog.GaitMode        `json:"gait"`
	PendingGait  dog.GaitMode        `json:"pending_gait"`
	Joystick     dog.JoystickCommand `json:"joystick"`
	JoystickSeen uint64              `json:"joystick_count"`
	Tricks       []dog.TrickAction   `json:"tricks"`
	HeadMotor    bool                `json:"head_motor"`
	Volume       int                 `json:"volume"`
	Spoken       []dog.TtsCommand    `json:"spoken"`
	Cameras      map[string]bool     `json:"cameras"`
	Mapping      bool                `json:"mapping"`
	CurrentMap   string              `json:"current_map"`
	Maps         []string            `json:"maps"`
	Localization dog.LocalizationInfo `json:"localization"`
	NavMode      dog.NavMode         `json:"nav_mode"`
	Nav          dog.NavStatus       `json:"nav"`
	Battery      dog.BmsData         `json:"battery"`
}

// model is the simulated robot. All fields are guarded by mu.
type model struct {
	mu sync.Mutex

	convergeAfter int

	level        dog.ControllerLevel
	gait         dog.GaitMode
	pending      dog.GaitMode
	hasPending   bool
	pollsLeft    int
	joystick     dog.JoystickCommand
	joystickSeen uint64
	tricks       []dog.TrickAction
	headMotor    bool
	speedRatios  map[dog.GaitMode]dog.GaitSpeedRatio
	legCommand   dog.LegJointCommand

	volume      int
	voice       dog.SetSpeechConfig
	ttsType     dog.TtsType
	spoken      []dog.TtsCommand
	voiceStream struct{ raw, bf bool }

	channelOpen bool
	cameras     map[string]bool

	mapping      bool
	maps         map[string]dog.MapInfo
	currentMap   string
	locating     bool
	localization dog.LocalizationInfo
	navMode      dog.NavMode
	nav          dog.NavStatus
	navProgress  int
	navGoal      dog.Pose3DEuler

	bms    dog.BmsData
	faults []dog.Fault
	tick   uint64
}

func newModel(convergeAfter int) *model {
	return &model{
		convergeAfter: convergeAfter,
		level:         dog.LevelHigh,
		gait:          dog.GaitPassive,
		volume:        5,
		speedRatios: map[dog.GaitMode]dog.GaitSpeedRatio{
			dog.GaitDownClimbStairs: {StraightRatio: 0.25, TurnRatio: 0.4, LateralRatio: 0.2},
			dog.GaitUpClimbStairs:   {StraightRatio: 0.3, TurnRatio: 0.5, LateralRatio: 0.25},
			dog.GaitWalk:            {StraightRatio: 0.5, TurnRatio: 0.6, LateralRatio: 0.3},
			dog.GaitTrot:            {StraightRatio: 0.8, TurnRatio: 0.8, LateralRatio: 0.5},
		},
		voice: dog.SetSpeechConfig{
			SpeakerID:    "zh_female_1",
			Region:       "cn",
			BotID:        "default",
			IsEnable:     true,
			SpeakerSpeed: 1.0,
			WakeupName:   "小K",
		},
		ttsType: dog.TtsTypeDoubao,
		cameras: map[string]bool{"binocular": false, "rgbd": false, "laser": false},
		maps:    make(map[string]dog.MapInfo),
		nav:     dog.NavStatus{ID: -1, Status: dog.NavStatusNone},
		bms: dog.BmsData{
			BatteryPercentage: 87,
			BatteryHealth:     98,
			BatteryState:      dog.BatteryGood,
			PowerSupplyStatus: dog.PowerDischarging,
		},
	}
}

func (m *model) snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Level:        m.level,
		Gait:         m.gait,
		PendingGait:  dog.GaitNone,
		Joystick:     m.joystick,
		JoystickSeen: m.joystickSeen,
		Tricks:       append([]dog.TrickAction(nil), m.tricks...),
		HeadMotor:    m.headMotor,
		Volume:       m.volume,
		Spoken:       append([]dog.TtsCommand(nil), m.spoken...),
		Cameras:      make(map[string]bool, len(m.cameras)),
		Mapping:      m.mapping,
		CurrentMap:   m.currentMap,
		Localization: m.localization,
		NavMode:      m.navMode,
		Nav:          m.nav,
		Battery:      m.bms,
	}
	if m.hasPending {
		s.PendingGait = m.pending
	}
	for k, v := range m.cameras {
		s.Cameras[k] = v
	}
	for name := range m.maps {
		s.Maps = append(s.Maps, name)
	}
	return s
}

// setGait starts a transition that completes after convergeAfter polls.
func (m *model) setGait(g dog.GaitMode) error {
	if !g.Valid() || g == dog.GaitNone {
		return &dog.Status{Code: dog.ServiceError, Message: fmt.Sprintf("unsupported gait %d", g)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g == dog.GaitLowLevelSDK && m.level != dog.LevelLow {
		return &dog.Status{Code: dog.ServiceError, Message: "low-level gait requires LowLevel control"}
	}
	if g == m.gait {
		m.hasPending = false
		return nil
	}
	m.pending = g
	m.hasPending = true
	m.pollsLeft = m.convergeAfter
	return nil
}

func (m *model) getGait() dog.GaitMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasPending {
		if m.pollsLeft > 0 {
			m.pollsLeft--
		} else {
			m.gait = m.pending
			m.hasPending = false
		}
	}
	return m.gait
}

// generateMapImage draws a bordered room with one pillar.
func generateMapImage(w, h int) dog.MapImageData {
	img := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(254) // free
			switch {
			case x == 0 || y == 0 || x == w-1 || y == h-1:
				v = 0 // occupied
			case x > w/2-3 && x < w/2+3 && y > h/2-3 && y < h/2+3:
				v = 0
			}
			img[y*w+x] = v
		}
	}
	return dog.MapImageData{Type: "P5", Width: uint32(w), Height: uint32(h), MaxGrayValue: 255, Image: img}
}

// advance moves time-based state forward by one event tick.
func (m *model) advance() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tick++

	if m.nav.Status == dog.NavStatusRunning || m.nav.Status == dog.NavStatusContinue {
		m.navProgress++
		if m.navProgress >= navTicks {
			m.nav.Status = dog.NavStatusEndSuccess
			m.nav.Message = "goal reached"
			m.localization.Pose = m.navGoal
		}
	}

	// Roughly one percent every few minutes at the default event rate.
	if m.tick%2000 == 0 && m.bms.BatteryPercentage > 5 {
		m.bms.BatteryPercentage--
	}
}
