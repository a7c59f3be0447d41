package dog

import "fmt"

// LegJointNum is the number of actuated leg joints (four legs, three each).
const LegJointNum = 12

// Fault is one active robot fault.
type Fault struct {
	ErrorCode    int32  `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// BatteryState reports battery health.
type BatteryState int8

const (
	BatteryUnknown             BatteryState = 0
	BatteryGood                BatteryState = 1
	BatteryOverheat            BatteryState = 2
	BatteryDead                BatteryState = 3
	BatteryOvervoltage         BatteryState = 4
	BatteryUnspecFailure       BatteryState = 5
	BatteryCold                BatteryState = 6
	BatteryWatchdogTimerExpire BatteryState = 7
	BatterySafetyTimerExpire   BatteryState = 8
)

var batteryStateNames = map[BatteryState]string{
	BatteryUnknown:             "UNKNOWN",
	BatteryGood:                "GOOD",
	BatteryOverheat:            "OVERHEAT",
	BatteryDead:                "DEAD",
	BatteryOvervoltage:         "OVERVOLTAGE",
	BatteryUnspecFailure:       "UNSPEC_FAILURE",
	BatteryCold:                "COLD",
	BatteryWatchdogTimerExpire: "WATCHDOG_TIMER_EXPIRE",
	BatterySafetyTimerExpire:   "SAFETY_TIMER_EXPIRE",
}

func (s BatteryState) String() string { return enumName(batteryStateNames, s) }

// PowerSupplyStatus reports the charging state.
type PowerSupplyStatus int8

const (
	PowerUnknown     PowerSupplyStatus = 0
	PowerCharging    PowerSupplyStatus = 1
	PowerDischarging PowerSupplyStatus = 2
	PowerNotCharging PowerSupplyStatus = 3
	PowerFull        PowerSupplyStatus = 4
)

var powerSupplyNames = map[PowerSupplyStatus]string{
	PowerUnknown:     "UNKNOWN",
	PowerCharging:    "CHARGING",
	PowerDischarging: "DISCHARGING",
	PowerNotCharging: "NOTCHARGING",
	PowerFull:        "FULL",
}

func (s PowerSupplyStatus) String() string { return enumName(powerSupplyNames, s) }

// BmsData is the battery management system report.
type BmsData struct {
	BatteryPercentage float64           `json:"battery_percentage"`
	BatteryHealth     float64           `json:"battery_health"`
	BatteryState      BatteryState      `json:"battery_state"`
	PowerSupplyStatus PowerSupplyStatus `json:"power_supply_status"`
}

// RobotState is the aggregated state returned by the state monitor.
type RobotState struct {
	Faults  []Fault `json:"faults"`
	BmsData BmsData `json:"bms_data"`
}

// ControllerLevel selects which motion controller owns the legs.
type ControllerLevel int8

const (
	LevelUnknown ControllerLevel = 0
	LevelHigh    ControllerLevel = 1
	LevelLow     ControllerLevel = 2
)

func (l ControllerLevel) String() string {
	switch l {
	case LevelHigh:
		return "HighLevel"
	case LevelLow:
		return "LowLevel"
	default:
		return "Unknown"
	}
}

// GaitMode is a locomotion mode of the robot.
type GaitMode int32

const (
	GaitPassive         GaitMode = 0 // motors disabled
	GaitStandR          GaitMode = 2 // position-controlled recovery stand
	GaitStandB          GaitMode = 3 // force-controlled balance stand
	GaitRunFast         GaitMode = 8
	GaitDownClimbStairs GaitMode = 9 // blind walk, also the slow run
	GaitTrot            GaitMode = 10
	GaitPronk           GaitMode = 11
	GaitBound           GaitMode = 12
	GaitAmble           GaitMode = 14
	GaitCrawl           GaitMode = 29
	GaitLowLevelSDK     GaitMode = 30
	GaitWalk            GaitMode = 39
	GaitUpClimbStairs   GaitMode = 56 // all terrain
	GaitRLTerrain       GaitMode = 110
	GaitRLFallRecovery  GaitMode = 111
	GaitRLHandStand     GaitMode = 112
	GaitRLFootStand     GaitMode = 113
	GaitEnterRL         GaitMode = 1001
	GaitDefault         GaitMode = 99
	GaitNone            GaitMode = 9999
)

var gaitNames = map[GaitMode]string{
	GaitPassive:         "PASSIVE",
	GaitStandR:          "STAND_R",
	GaitStandB:          "STAND_B",
	GaitRunFast:         "RUN_FAST",
	GaitDownClimbStairs: "DOWN_CLIMB_STAIRS",
	GaitTrot:            "TROT",
	GaitPronk:           "PRONK",
	GaitBound:           "BOUND",
	GaitAmble:           "AMBLE",
	GaitCrawl:           "CRAWL",
	GaitLowLevelSDK:     "LOWLEVEL_SDK",
	GaitWalk:            "WALK",
	GaitUpClimbStairs:   "UP_CLIMB_STAIRS",
	GaitRLTerrain:       "RL_TERRAIN",
	GaitRLFallRecovery:  "RL_FALL_RECOVERY",
	GaitRLHandStand:     "RL_HAND_STAND",
	GaitRLFootStand:     "RL_FOOT_STAND",
	GaitEnterRL:         "ENTER_RL",
	GaitDefault:         "DEFAULT",
	GaitNone:            "NONE",
}

func (g GaitMode) String() string { return enumName(gaitNames, g) }

// Valid reports whether g is a known gait.
func (g GaitMode) Valid() bool {
	_, ok := gaitNames[g]
	return ok
}

// TrickAction is a predefined server-side action sequence.
type TrickAction int32

const (
	TrickNone                TrickAction = 0
	TrickWiggleHip           TrickAction = 26
	TrickSwingBody           TrickAction = 27
	TrickStretch             TrickAction = 28
	TrickStomp               TrickAction = 29
	TrickJumpJack            TrickAction = 30
	TrickSpaceWalk           TrickAction = 31
	TrickImitate             TrickAction = 32
	TrickShakeHead           TrickAction = 33
	TrickPushUp              TrickAction = 34
	TrickCheerUp             TrickAction = 35
	TrickHighFives           TrickAction = 36
	TrickScratch             TrickAction = 37
	TrickHighJump            TrickAction = 38
	TrickSwingDance          TrickAction = 39
	TrickLeapFrog            TrickAction = 40
	TrickBackFlip            TrickAction = 41
	TrickFrontFlip           TrickAction = 42
	TrickSpinJumpLeft        TrickAction = 43 // 70 degrees
	TrickSpinJumpRight       TrickAction = 44 // 70 degrees
	TrickJumpFront           TrickAction = 45 // 0.5 m
	TrickActCute             TrickAction = 46
	TrickBoxing              TrickAction = 47
	TrickSideSomersault      TrickAction = 48
	TrickRandomDance         TrickAction = 49
	TrickLeftSideSomersault  TrickAction = 84
	TrickRightSideSomersault TrickAction = 85
	TrickDance2              TrickAction = 91
	TrickEmergencyStop       TrickAction = 101
	TrickLieDown             TrickAction = 102
	TrickRecoveryStand       TrickAction = 103
	TrickHappyNewYear        TrickAction = 105
	TrickSlowGoFront         TrickAction = 108
	TrickSlowGoBack          TrickAction = 109
	TrickBackHome            TrickAction = 110
	TrickLeaveHome           TrickAction = 111
	TrickTurnAround          TrickAction = 112
	TrickDance               TrickAction = 115
	TrickRollAbout           TrickAction = 116
	TrickShakeRightHand      TrickAction = 117
	TrickShakeLeftHand       TrickAction = 118
	TrickSitDown             TrickAction = 119
)

var trickNames = map[TrickAction]string{
	TrickNone:                "NONE",
	TrickWiggleHip:           "WIGGLE_HIP",
	TrickSwingBody:           "SWING_BODY",
	TrickStretch:             "STRETCH",
	TrickStomp:               "STOMP",
	TrickJumpJack:            "JUMP_JACK",
	TrickSpaceWalk:           "SPACE_WALK",
	TrickImitate:             "IMITATE",
	TrickShakeHead:           "SHAKE_HEAD",
	TrickPushUp:              "PUSH_UP",
	TrickCheerUp:             "CHEER_UP",
	TrickHighFives:           "HIGH_FIVES",
	TrickScratch:             "SCRATCH",
	TrickHighJump:            "HIGH_JUMP",
	TrickSwingDance:          "SWING_DANCE",
	TrickLeapFrog:            "LEAP_FROG",
	TrickBackFlip:            "BACK_FLIP",
	TrickFrontFlip:           "FRONT_FLIP",
	TrickSpinJumpLeft:        "SPIN_JUMP_LEFT",
	TrickSpinJumpRight:       "SPIN_JUMP_RIGHT",
	TrickJumpFront:           "JUMP_FRONT",
	TrickActCute:             "ACT_CUTE",
	TrickBoxing:              "BOXING",
	TrickSideSomersault:      "SIDE_SOMERSAULT",
	TrickRandomDance:         "RANDOM_DANCE",
	TrickLeftSideSomersault:  "LEFT_SIDE_SOMERSAULT",
	TrickRightSideSomersault: "RIGHT_SIDE_SOMERSAULT",
	TrickDance2:              "DANCE2",
	TrickEmergencyStop:       "EMERGENCY_STOP",
	TrickLieDown:             "LIE_DOWN",
	TrickRecoveryStand:       "RECOVERY_STAND",
	TrickHappyNewYear:        "HAPPY_NEW_YEAR",
	TrickSlowGoFront:         "SLOW_GO_FRONT",
	TrickSlowGoBack:          "SLOW_GO_BACK",
	TrickBackHome:            "BACK_HOME",
	TrickLeaveHome:           "LEAVE_HOME",
	TrickTurnAround:          "TURN_AROUND",
	TrickDance:               "DANCE",
	TrickRollAbout:           "ROLL_ABOUT",
	TrickShakeRightHand:      "SHAKE_RIGHT_HAND",
	TrickShakeLeftHand:       "SHAKE_LEFT_HAND",
	TrickSitDown:             "SIT_DOWN",
}

func (t TrickAction) String() string { return enumName(trickNames, t) }

// Valid reports whether t is a known trick.
func (t TrickAction) Valid() bool {
	_, ok := trickNames[t]
	return ok
}

// JoystickCommand is a normalized velocity intent. Axes are nominally in [-1, 1].
type JoystickCommand struct {
	LeftX  float64 `json:"left_x_axis"`  // lateral
	LeftY  float64 `json:"left_y_axis"`  // forward/back
	RightX float64 `json:"right_x_axis"` // yaw
	RightY float64 `json:"right_y_axis"`
}

// GaitSpeedRatio scales the joystick per gait.
type GaitSpeedRatio struct {
	StraightRatio float64 `json:"straight_ratio"`
	TurnRatio     float64 `json:"turn_ratio"`
	LateralRatio  float64 `json:"lateral_ratio"`
}

// AllGaitSpeedRatio holds the speed ratios of every gait.
type AllGaitSpeedRatio struct {
	GaitSpeedRatios map[GaitMode]GaitSpeedRatio `json:"gait_speed_ratios"`
}

// SingleLegJointCommand is the setpoint for one joint.
type SingleLegJointCommand struct {
	QDes   float64 `json:"q_des"`
	DqDes  float64 `json:"dq_des"`
	TauDes float64 `json:"tau_des"`
	Kp     float64 `json:"kp"`
	Kd     float64 `json:"kd"`
}

// LegJointCommand addresses all twelve joints, left legs first.
type LegJointCommand struct {
	Timestamp int64                              `json:"timestamp"` // ns
	Cmd       [LegJointNum]SingleLegJointCommand `json:"cmd"`
}

// SingleLegJointState is the measured state of one joint.
type SingleLegJointState struct {
	Q      float64 `json:"q"`
	Dq     float64 `json:"dq"`
	TauEst float64 `json:"tau_est"`
}

// LegState is the measured state of all twelve joints.
type LegState struct {
	Timestamp int64                            `json:"timestamp"` // ns
	State     [LegJointNum]SingleLegJointState `json:"state"`
}

// TtsPriority orders speech requests.
type TtsPriority int8

const (
	TtsPriorityHigh   TtsPriority = 0
	TtsPriorityMiddle TtsPriority = 1
	TtsPriorityLow    TtsPriority = 2
)

func (p TtsPriority) String() string {
	return enumName(map[TtsPriority]string{0: "HIGH", 1: "MIDDLE", 2: "LOW"}, p)
}

// TtsMode controls how a request interacts with the queue of its priority.
type TtsMode int8

const (
	TtsModeClearTop    TtsMode = 0 // drop everything at this priority and play now
	TtsModeAdd         TtsMode = 1 // append
	TtsModeClearBuffer TtsMode = 2 // keep current playback, drop the waiting queue
)

func (m TtsMode) String() string {
	return enumName(map[TtsMode]string{0: "CLEARTOP", 1: "ADD", 2: "CLEARBUFFER"}, m)
}

// TtsCommand is one text-to-speech request.
type TtsCommand struct {
	ID       string      `json:"id"`
	Content  string      `json:"content"`
	Priority TtsPriority `json:"priority"`
	Mode     TtsMode     `json:"mode"`
}

// TtsType selects the speech model.
type TtsType int

const (
	TtsTypeNone   TtsType = 0
	TtsTypeDoubao TtsType = 1
	TtsTypeGoogle TtsType = 2
)

func (t TtsType) String() string {
	return enumName(map[TtsType]string{0: "NONE", 1: "DOUBAO", 2: "GOOGLE"}, t)
}

// Imu is one inertial sample.
type Imu struct {
	Timestamp          int64      `json:"timestamp"`   // ns
	Orientation        [4]float64 `json:"orientation"` // w, x, y, z
	AngularVelocity    [3]float64 `json:"angular_velocity"`
	LinearAcceleration [3]float64 `json:"linear_acceleration"`
	Temperature        float64    `json:"temperature"`
}

// Header stamps sensor messages.
type Header struct {
	Stamp   int64  `json:"stamp"` // ns
	FrameID string `json:"frame_id"`
}

// PointField describes one field of a PointCloud2 point.
type PointField struct {
	Name     string `json:"name"`
	Offset   int32  `json:"offset"`
	Datatype int8   `json:"datatype"`
	Count    int32  `json:"count"`
}

// PointCloud2 is a packed point cloud.
type PointCloud2 struct {
	Header      Header       `json:"header"`
	Height      int32        `json:"height"`
	Width       int32        `json:"width"`
	Fields      []PointField `json:"fields"`
	IsBigendian bool         `json:"is_bigendian"`
	PointStep   int32        `json:"point_step"`
	RowStep     int32        `json:"row_step"`
	Data        []byte       `json:"data"`
	IsDense     bool         `json:"is_dense"`
}

// Image is an uncompressed image.
type Image struct {
	Header      Header `json:"header"`
	Height      int32  `json:"height"`
	Width       int32  `json:"width"`
	Encoding    string `json:"encoding"` // rgb8, mono8, bgr8, ...
	IsBigendian bool   `json:"is_bigendian"`
	Step        int32  `json:"step"`
	Data        []byte `json:"data"`
}

// CameraInfo carries camera calibration.
type CameraInfo struct {
	Header          Header      `json:"header"`
	Height          int32       `json:"height"`
	Width           int32       `json:"width"`
	DistortionModel string      `json:"distortion_model"`
	D               []float64   `json:"d"`
	K               [9]float64  `json:"k"`
	R               [9]float64  `json:"r"`
	P               [12]float64 `json:"p"`
	BinningX        int32       `json:"binning_x"`
	BinningY        int32       `json:"binning_y"`
	RoiXOffset      int32       `json:"roi_x_offset"`
	RoiYOffset      int32       `json:"roi_y_offset"`
	RoiHeight       int32       `json:"roi_height"`
	RoiWidth        int32       `json:"roi_width"`
	RoiDoRectify    bool        `json:"roi_do_rectify"`
}

// CompressedImage is an encoded frame, usually JPEG.
type CompressedImage struct {
	Header Header `json:"header"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// LaserScan is one lidar sweep.
type LaserScan struct {
	Header         Header    `json:"header"`
	AngleMin       int32     `json:"angle_min"`
	AngleMax       int32     `json:"angle_max"`
	AngleIncrement int32     `json:"angle_increment"`
	TimeIncrement  int32     `json:"time_increment"`
	ScanTime       int32     `json:"scan_time"`
	RangeMin       int32     `json:"range_min"`
	RangeMax       int32     `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
	Intensities    []float64 `json:"intensities"`
}

type MultiArrayDimension struct {
	Label  string `json:"label"`
	Size   int32  `json:"size"`
	Stride int32  `json:"stride"`
}

type MultiArrayLayout struct {
	DimSize    int32                 `json:"dim_size"`
	Dim        []MultiArrayDimension `json:"dim"`
	DataOffset int32                 `json:"data_offset"`
}

// Float32MultiArray carries ultrasonic ranges.
type Float32MultiArray struct {
	Layout MultiArrayLayout `json:"layout"`
	Data   []float64        `json:"data"`
}

// ByteMultiArray carries raw or beam-formed voice audio.
type ByteMultiArray struct {
	Layout MultiArrayLayout `json:"layout"`
	Data   []byte           `json:"data"`
}

// HeadTouch is the head touch sensor reading.
type HeadTouch struct {
	Data int8 `json:"data"`
}

// CustomBotInfo describes a user-defined dialog bot.
type CustomBotInfo struct {
	Name     string `json:"name"`
	Workflow string `json:"workflow"`
	Token    string `json:"token"`
}

// SetSpeechConfig is the writable speech configuration.
type SetSpeechConfig struct {
	SpeakerID          string                   `json:"speaker_id"`
	Region             string                   `json:"region"`
	BotID              string                   `json:"bot_id"`
	IsFrontDoa         bool                     `json:"is_front_doa"`
	IsFullduplexEnable bool                     `json:"is_fullduplex_enable"`
	IsEnable           bool                     `json:"is_enable"`
	IsDoaEnable        bool                     `json:"is_doa_enable"`
	SpeakerSpeed       float64                  `json:"speaker_speed"` // [1, 2]
	WakeupName         string                   `json:"wakeup_name"`
	CustomBot          map[string]CustomBotInfo `json:"custom_bot"`
}

type SpeakerConfigSelected struct {
	Region    string `json:"region"`
	SpeakerID string `json:"speaker_id"`
}

// SpeakerConfig lists available speakers: region → [[id, name], ...].
type SpeakerConfig struct {
	Data         map[string][][]string `json:"data"`
	Selected     SpeakerConfigSelected `json:"selected"`
	SpeakerSpeed float64               `json:"speaker_speed"`
}

type BotInfo struct {
	Name     string `json:"name"`
	Workflow string `json:"workflow"`
}

type BotConfigSelected struct {
	BotID string `json:"bot_id"`
}

type BotConfig struct {
	Data       map[string]BotInfo       `json:"data"`
	CustomData map[string]CustomBotInfo `json:"custom_data"`
	Selected   BotConfigSelected        `json:"selected"`
}

// WakeupConfig holds the wakeup name and wakeup word → pinyin table.
type WakeupConfig struct {
	Name string            `json:"name"`
	Data map[string]string `json:"data"`
}

type DialogConfig struct {
	IsFrontDoa         bool `json:"is_front_doa"`
	IsFullduplexEnable bool `json:"is_fullduplex_enable"`
	IsEnable           bool `json:"is_enable"`
	IsDoaEnable        bool `json:"is_doa_enable"`
}

// GetSpeechConfig is the full speech configuration as reported by the robot.
type GetSpeechConfig struct {
	SpeakerConfig SpeakerConfig `json:"speaker_config"`
	BotConfig     BotConfig     `json:"bot_config"`
	WakeupConfig  WakeupConfig  `json:"wakeup_config"`
	DialogConfig  DialogConfig  `json:"dialog_config"`
	TtsType       TtsType       `json:"tts_type"`
}

// NavMode selects the navigation engine.
type NavMode int

const (
	NavModeIdle    NavMode = 0
	NavModeGridMap NavMode = 1
)

func (m NavMode) String() string {
	return enumName(map[NavMode]string{0: "IDLE", 1: "GRID_MAP"}, m)
}

// Pose3DEuler is a position plus roll/pitch/yaw in radians.
type Pose3DEuler struct {
	Position    [3]float64 `json:"position"`
	Orientation [3]float64 `json:"orientation"`
}

// Pose2D builds a planar pose.
func Pose2D(x, y, yaw float64) Pose3DEuler {
	return Pose3DEuler{Position: [3]float64{x, y, 0}, Orientation: [3]float64{0, 0, yaw}}
}

// MapImageData is a PGM occupancy image.
type MapImageData struct {
	Type         string `json:"type"` // "P5" for binary PGM
	Width        uint32 `json:"width"`
	Height       uint32 `json:"height"`
	MaxGrayValue uint32 `json:"max_gray_value"`
	Image        []byte `json:"image"`
}

type MapMetaData struct {
	Resolution   float64      `json:"resolution"` // m/pixel
	Origin       Pose3DEuler  `json:"origin"`
	MapImageData MapImageData `json:"map_image_data"`
}

type MapInfo struct {
	MapName     string      `json:"map_name"`
	MapMetaData MapMetaData `json:"map_meta_data"`
}

type AllMapInfo struct {
	CurrentMapName string    `json:"current_map_name"`
	MapInfos       []MapInfo `json:"map_infos"`
}

type LocalizationInfo struct {
	IsLocalization bool        `json:"is_localization"`
	Pose           Pose3DEuler `json:"pose"`
}

// NavTarget is a navigation goal. ID -1 means unset.
type NavTarget struct {
	ID      int32       `json:"id"`
	FrameID string      `json:"frame_id"`
	Goal    Pose3DEuler `json:"goal"`
}

// NavStatusType is the navigation task state.
type NavStatusType int

const (
	NavStatusNone       NavStatusType = 0
	NavStatusRunning    NavStatusType = 1
	NavStatusEndSuccess NavStatusType = 2
	NavStatusEndFailed  NavStatusType = 3
	NavStatusPause      NavStatusType = 4
	NavStatusContinue   NavStatusType = 5
	NavStatusCancel     NavStatusType = 6
)

func (s NavStatusType) String() string {
	return enumName(map[NavStatusType]string{
		0: "NONE", 1: "RUNNING", 2: "END_SUCCESS", 3: "END_FAILED",
		4: "PAUSE", 5: "CONTINUE", 6: "CANCEL",
	}, s)
}

type NavStatus struct {
	ID      int32         `json:"id"`
	Status  NavStatusType `json:"status"`
	Message string        `json:"message"`
}

// Odometry is the SLAM pose estimate.
type Odometry struct {
	Header          Header     `json:"header"`
	ChildFrameID    string     `json:"child_frame_id"`
	Position        [3]float64 `json:"position"`
	Orientation     [4]float64 `json:"orientation"` // w, x, y, z
	LinearVelocity  [3]float64 `json:"linear_velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
}

func enumName[K ~int8 | ~int32 | ~int](names map[K]string, v K) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("%d", v)
}
