package dog

// Request and result payloads for calls whose arguments are not already a
// single SDK type. They are exported so the simulator can decode them.

type HelloParams struct {
	LocalIP    string `json:"local_ip"`
	SDKVersion string `json:"sdk_version"`
}

type LevelParams struct {
	Level ControllerLevel `json:"level"`
}

type GaitParams struct {
	Gait GaitMode `json:"gait"`
}

type TrickParams struct {
	Trick TrickAction `json:"trick"`
}

type SpeedRatioParams struct {
	Gait  GaitMode       `json:"gait"`
	Ratio GaitSpeedRatio `json:"ratio"`
}

type EnabledResult struct {
	Enabled bool `json:"enabled"`
}

type VolumeParams struct {
	Volume int `json:"volume"`
}

type TtsModelParams struct {
	Type TtsType `json:"tts_type"`
}

type VoiceStreamParams struct {
	Raw bool `json:"raw_data"`
	Bf  bool `json:"bf_data"`
}

type MapNameParams struct {
	Name string `json:"map_name"`
}

type NavModeParams struct {
	Mode NavMode `json:"mode"`
}
