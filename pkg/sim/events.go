package sim

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"time"

	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// Periodic topics publish every tick; slow topics every slowEvery ticks.
const (
	slowEvery  = 10
	voiceEvery = 50
)

func (s *Server) publishPeriodic() {
	m := s.model
	m.mu.Lock()
	tick := m.tick
	level := m.level
	bf := m.voiceStream.bf
	channel := m.channelOpen
	cams := map[string]bool{}
	for k, v := range m.cameras {
		cams[k] = v
	}
	odom := dog.Odometry{
		Header:       header("odom"),
		ChildFrameID: "base_link",
		Position:     m.localization.Pose.Position,
		Orientation:  yawQuaternion(m.localization.Pose.Orientation[2]),
	}
	m.mu.Unlock()

	s.publishIf(protocol.TopicImu, func() any { return syntheticImu(tick) })
	s.publishIf(protocol.TopicOdometry, func() any { return odom })

	if level == dog.LevelLow {
		s.publishIf(protocol.TopicLegState, func() any { return s.legState() })
	}
	if tick%slowEvery == 0 {
		s.publishIf(protocol.TopicUltra, func() any {
			return dog.Float32MultiArray{Data: []float64{1.2, 1.5, 0.9, 2.0}}
		})
		s.publishIf(protocol.TopicHeadTouch, func() any { return dog.HeadTouch{Data: 0} })
	}

	if channel && cams["binocular"] {
		frame := func() any {
			return dog.CompressedImage{Header: header("left_camera"), Format: "jpeg", Data: syntheticFrame(tick)}
		}
		s.publishIf(protocol.TopicLeftBinocularHigh, frame)
		s.publishIf(protocol.TopicLeftBinocularLow, frame)
		s.publishIf(protocol.TopicRightBinocularLow, frame)
	}
	if channel && cams["laser"] && tick%slowEvery == 0 {
		s.publishIf(protocol.TopicLaserScan, func() any { return syntheticScan() })
	}
	if channel && cams["rgbd"] && tick%slowEvery == 0 {
		s.publishIf(protocol.TopicRgbdColorImage, func() any {
			return dog.Image{Header: header("rgbd"), Height: 2, Width: 2, Encoding: "rgb8", Step: 6, Data: make([]byte, 12)}
		})
	}

	if bf && tick%voiceEvery == 0 {
		s.publishIf(protocol.TopicBfVoice, func() any {
			return dog.ByteMultiArray{Data: toneChunk(16000, 500*time.Millisecond)}
		})
	}
}

func (s *Server) publishIf(topic string, build func() any) {
	if s.Subscribed(topic) {
		s.Publish(topic, build())
	}
}

func (s *Server) legState() dog.LegState {
	m := s.model
	m.mu.Lock()
	defer m.mu.Unlock()
	st := dog.LegState{Timestamp: time.Now().UnixNano()}
	for i, c := range m.legCommand.Cmd {
		st.State[i] = dog.SingleLegJointState{Q: c.QDes, Dq: c.DqDes, TauEst: c.TauDes}
	}
	return st
}

func header(frame string) dog.Header {
	return dog.Header{Stamp: time.Now().UnixNano(), FrameID: frame}
}

func yawQuaternion(yaw float64) [4]float64 {
	return [4]float64{math.Cos(yaw / 2), 0, 0, math.Sin(yaw / 2)}
}

func syntheticImu(tick uint64) dog.Imu {
	sway := 0.02 * math.Sin(float64(tick)/10)
	return dog.Imu{
		Timestamp:          time.Now().UnixNano(),
		Orientation:        [4]float64{1, sway, 0, 0},
		AngularVelocity:    [3]float64{0, 0, sway},
		LinearAcceleration: [3]float64{0, 0, 9.81},
		Temperature:        36.5,
	}
}

func syntheticScan() dog.LaserScan {
	ranges := make([]float64, 360)
	for i := range ranges {
		ranges[i] = 2 + 0.5*math.Sin(float64(i)*math.Pi/90)
	}
	return dog.LaserScan{Header: header("laser"), AngleMin: -180, AngleMax: 180, AngleIncrement: 1, RangeMin: 0, RangeMax: 10, Ranges: ranges}
}

// syntheticFrame renders a small gradient whose phase moves with tick.
func syntheticFrame(tick uint64) []byte {
	const w, h = 64, 48
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*4 + y + int(tick)) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		return nil
	}
	return buf.Bytes()
}

// toneChunk returns d of quiet 440 Hz 16-bit little-endian mono PCM.
func toneChunk(rate int, d time.Duration) []byte {
	n := int(float64(rate) * d.Seconds())
	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := int16(200 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}
