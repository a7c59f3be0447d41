package protocol

// RPC method names.
const (
	MethodHello      = "session.hello"
	MethodGoodbye    = "session.goodbye"
	MethodGetLevel   = "session.get_level"
	MethodSetLevel   = "session.set_level"

	MethodSetGait              = "motion.set_gait"
	MethodGetGait              = "motion.get_gait"
	MethodExecuteTrick         = "motion.execute_trick"
	MethodJoystick             = "motion.joystick"
	MethodEnableJoystick       = "motion.enable_joystick"
	MethodDisableJoystick      = "motion.disable_joystick"
	MethodGetAllGaitSpeedRatio = "motion.get_all_gait_speed_ratio"
	MethodSetGaitSpeedRatio    = "motion.set_gait_speed_ratio"
	MethodGetHeadMotor         = "motion.get_head_motor"
	MethodEnableHeadMotor      = "motion.enable_head_motor"
	MethodDisableHeadMotor     = "motion.disable_head_motor"
	MethodLegCommand           = "lowlevel.leg_command"

	MethodSwitchTtsModel     = "audio.switch_tts_model"
	MethodGetVoiceConfig     = "audio.get_voice_config"
	MethodSetVoiceConfig     = "audio.set_voice_config"
	MethodPlay               = "audio.play"
	MethodStop               = "audio.stop"
	MethodSetVolume          = "audio.set_volume"
	MethodGetVolume          = "audio.get_volume"
	MethodControlVoiceStream = "audio.control_voice_stream"

	MethodOpenChannelSwitch   = "sensor.open_channel_switch"
	MethodCloseChannelSwitch  = "sensor.close_channel_switch"
	MethodOpenLaserScan       = "sensor.open_laser_scan"
	MethodCloseLaserScan      = "sensor.close_laser_scan"
	MethodOpenRgbdCamera      = "sensor.open_rgbd_camera"
	MethodCloseRgbdCamera     = "sensor.close_rgbd_camera"
	MethodOpenBinocularCamera = "sensor.open_binocular_camera"
	MethodCloseBinocularCam   = "sensor.close_binocular_camera"

	MethodSwitchToIdle     = "slam.switch_to_idle"
	MethodSwitchToLocation = "slam.switch_to_location"
	MethodStartMapping     = "slam.start_mapping"
	MethodCancelMapping    = "slam.cancel_mapping"
	MethodSaveMap          = "slam.save_map"
	MethodLoadMap          = "slam.load_map"
	MethodDeleteMap        = "slam.delete_map"
	MethodGetAllMapInfo    = "slam.get_all_map_info"
	MethodInitPose         = "slam.init_pose"
	MethodGetLocalization  = "slam.get_localization"
	MethodActivateNavMode  = "nav.activate_mode"
	MethodSetNavTarget     = "nav.set_target"
	MethodPauseNav         = "nav.pause"
	MethodResumeNav        = "nav.resume"
	MethodCancelNav        = "nav.cancel"
	MethodGetNavStatus     = "nav.get_status"

	MethodGetState = "monitor.get_state"
)

// Event topics.
const (
	TopicLegState = "lowlevel.leg_state"

	TopicOriginVoice = "audio.origin_voice"
	TopicBfVoice     = "audio.bf_voice"

	TopicUltra               = "sensor.ultra"
	TopicHeadTouch           = "sensor.head_touch"
	TopicLaserScan           = "sensor.laser_scan"
	TopicRgbDepthCameraInfo  = "sensor.rgb_depth_camera_info"
	TopicRgbdDepthImage      = "sensor.rgbd_depth_image"
	TopicRgbdColorCameraInfo = "sensor.rgbd_color_camera_info"
	TopicRgbdColorImage      = "sensor.rgbd_color_image"
	TopicImu                 = "sensor.imu"
	TopicLeftBinocularHigh   = "sensor.left_binocular_high"
	TopicLeftBinocularLow    = "sensor.left_binocular_low"
	TopicRightBinocularLow   = "sensor.right_binocular_low"
	TopicDepthImage          = "sensor.depth_image"

	TopicOdometry = "slam.odometry"
)
