// Package config loads go-magicdog settings from an optional YAML file and
// MAGIC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults carried over from the robot's stock example programs.
const (
	DefaultLocalIP      = "192.168.54.10"
	DefaultRobotAddress = "192.168.54.110:7447"
	DefaultFaceURL      = "http://120.92.77.233:3999/face/frame"
	DefaultSpeechURL    = "http://120.92.77.233:3999/speech/once"
	DefaultFaceAdminURL = "http://120.92.77.233:3999"

	// DefaultFile is looked up in the working directory when no path is given.
	DefaultFile = "magicdog.yaml"
)

// Config is the full configuration tree.
type Config struct {
	Robot      RobotConfig      `mapstructure:"robot"`
	Teleop     TeleopConfig     `mapstructure:"teleop"`
	Perception PerceptionConfig `mapstructure:"perception"`
	Web        WebConfig        `mapstructure:"web"`
	Sim        SimConfig        `mapstructure:"sim"`
	Log        LogConfig        `mapstructure:"log"`
}

// RobotConfig describes how to reach the robot service.
type RobotConfig struct {
	LocalIP     string        `mapstructure:"local_ip"`
	Address     string        `mapstructure:"address"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// TeleopConfig tunes the teleoperation loop.
type TeleopConfig struct {
	TargetGait      int           `mapstructure:"target_gait"`
	Tick            time.Duration `mapstructure:"tick"`
	GatePoll        time.Duration `mapstructure:"gate_poll"`
	GateMaxAttempts int           `mapstructure:"gate_max_attempts"`
	DanceDuration   time.Duration `mapstructure:"dance_duration"`
	Volume          int           `mapstructure:"volume"`
	WakeupName      string        `mapstructure:"wakeup_name"`
}

// PerceptionConfig configures the recognition backends and debouncing.
type PerceptionConfig struct {
	FaceURL             string        `mapstructure:"face_url"`
	SpeechURL           string        `mapstructure:"speech_url"`
	FaceAdminURL        string        `mapstructure:"face_admin_url"`
	RequestCooldown     time.Duration `mapstructure:"request_cooldown"`
	IdentityCooldown    time.Duration `mapstructure:"identity_cooldown"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	HTTPTimeout         time.Duration `mapstructure:"http_timeout"`
	RosterFile          string        `mapstructure:"roster_file"`
	CaptureDir          string        `mapstructure:"capture_dir"`
}

// WebConfig configures the optional teleop dashboard. Empty Addr disables it.
type WebConfig struct {
	Addr string `mapstructure:"addr"`
}

// SimConfig configures the simulated robot service.
type SimConfig struct {
	Addr          string        `mapstructure:"addr"`
	ConvergeAfter int           `mapstructure:"converge_after"`
	TrickDelay    time.Duration `mapstructure:"trick_delay"`
	EventRate     time.Duration `mapstructure:"event_rate"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("robot.local_ip", DefaultLocalIP)
	v.SetDefault("robot.address", DefaultRobotAddress)
	v.SetDefault("robot.call_timeout", 5*time.Second)

	v.SetDefault("teleop.target_gait", 9) // down-climb-stairs
	v.SetDefault("teleop.tick", 10*time.Millisecond)
	v.SetDefault("teleop.gate_poll", 10*time.Millisecond)
	v.SetDefault("teleop.gate_max_attempts", 500)
	v.SetDefault("teleop.dance_duration", 45*time.Second)
	v.SetDefault("teleop.volume", 2)
	v.SetDefault("teleop.wakeup_name", "小K")

	v.SetDefault("perception.face_url", DefaultFaceURL)
	v.SetDefault("perception.speech_url", DefaultSpeechURL)
	v.SetDefault("perception.face_admin_url", DefaultFaceAdminURL)
	v.SetDefault("perception.request_cooldown", 2*time.Second)
	v.SetDefault("perception.identity_cooldown", 10*time.Second)
	v.SetDefault("perception.similarity_threshold", 0.85)
	v.SetDefault("perception.http_timeout", 10*time.Second)
	v.SetDefault("perception.roster_file", "")
	v.SetDefault("perception.capture_dir", "")

	v.SetDefault("web.addr", "")

	v.SetDefault("sim.addr", ":7447")
	v.SetDefault("sim.converge_after", 3)
	v.SetDefault("sim.trick_delay", 500*time.Millisecond)
	v.SetDefault("sim.event_rate", 100*time.Millisecond)

	v.SetDefault("log.level", "info")
}

// Load reads configuration. An empty path means DefaultFile, which may be
// absent. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MAGIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ROBOT_IP is honoured for parity with the other robot tooling.
	if ip := os.Getenv("ROBOT_IP"); ip != "" && os.Getenv("MAGIC_ROBOT_ADDRESS") == "" {
		cfg.Robot.Address = RobotAddress(ip)
	}

	return &cfg, cfg.Validate()
}

// Validate rejects settings the loops cannot run with.
func (c *Config) Validate() error {
	if c.Robot.Address == "" {
		return errors.New("config: robot.address is required")
	}
	if c.Teleop.Tick <= 0 {
		return fmt.Errorf("config: teleop.tick must be positive, got %s", c.Teleop.Tick)
	}
	if c.Teleop.GateMaxAttempts <= 0 {
		return fmt.Errorf("config: teleop.gate_max_attempts must be positive, got %d", c.Teleop.GateMaxAttempts)
	}
	if c.Perception.SimilarityThreshold < 0 || c.Perception.SimilarityThreshold > 1 {
		return fmt.Errorf("config: perception.similarity_threshold out of range: %v", c.Perception.SimilarityThreshold)
	}
	return nil
}

// RobotAddress appends the default service port to a bare robot IP.
func RobotAddress(ip string) string {
	if strings.Contains(ip, ":") {
		return ip
	}
	return ip + ":7447"
}

// RobotURL returns the websocket URL of the robot service.
func (c RobotConfig) RobotURL() string {
	return fmt.Sprintf("ws://%s/ws/robot", c.Address)
}
