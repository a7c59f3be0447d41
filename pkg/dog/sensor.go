package dog

import (
	"context"

	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// Sensor opens sensor channels and subscribes to their streams.
type Sensor struct {
	r *Robot
}

// OpenChannelSwitch enables sensor data forwarding to the SDK. It must precede
// any sensor subscription.
func (s *Sensor) OpenChannelSwitch(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodOpenChannelSwitch, nil, nil)
}

func (s *Sensor) CloseChannelSwitch(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodCloseChannelSwitch, nil, nil)
}

func (s *Sensor) OpenLaserScan(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodOpenLaserScan, nil, nil)
}

func (s *Sensor) CloseLaserScan(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodCloseLaserScan, nil, nil)
}

func (s *Sensor) OpenRgbdCamera(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodOpenRgbdCamera, nil, nil)
}

func (s *Sensor) CloseRgbdCamera(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodCloseRgbdCamera, nil, nil)
}

func (s *Sensor) OpenBinocularCamera(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodOpenBinocularCamera, nil, nil)
}

func (s *Sensor) CloseBinocularCamera(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodCloseBinocularCam, nil, nil)
}

// SubscribeUltra streams ultrasonic ranges.
func (s *Sensor) SubscribeUltra() (*Stream[*Float32MultiArray], error) {
	return subscribe[Float32MultiArray](s.r, protocol.TopicUltra)
}

func (s *Sensor) UnsubscribeUltra() error { return s.r.unsubscribe(protocol.TopicUltra) }

func (s *Sensor) SubscribeHeadTouch() (*Stream[*HeadTouch], error) {
	return subscribe[HeadTouch](s.r, protocol.TopicHeadTouch)
}

func (s *Sensor) UnsubscribeHeadTouch() error { return s.r.unsubscribe(protocol.TopicHeadTouch) }

func (s *Sensor) SubscribeLaserScan() (*Stream[*LaserScan], error) {
	return subscribe[LaserScan](s.r, protocol.TopicLaserScan)
}

func (s *Sensor) UnsubscribeLaserScan() error { return s.r.unsubscribe(protocol.TopicLaserScan) }

func (s *Sensor) SubscribeRgbDepthCameraInfo() (*Stream[*CameraInfo], error) {
	return subscribe[CameraInfo](s.r, protocol.TopicRgbDepthCameraInfo)
}

func (s *Sensor) UnsubscribeRgbDepthCameraInfo() error {
	return s.r.unsubscribe(protocol.TopicRgbDepthCameraInfo)
}

func (s *Sensor) SubscribeRgbdDepthImage() (*Stream[*Image], error) {
	return subscribe[Image](s.r, protocol.TopicRgbdDepthImage)
}

func (s *Sensor) UnsubscribeRgbdDepthImage() error {
	return s.r.unsubscribe(protocol.TopicRgbdDepthImage)
}

func (s *Sensor) SubscribeRgbdColorCameraInfo() (*Stream[*CameraInfo], error) {
	return subscribe[CameraInfo](s.r, protocol.TopicRgbdColorCameraInfo)
}

func (s *Sensor) UnsubscribeRgbdColorCameraInfo() error {
	return s.r.unsubscribe(protocol.TopicRgbdColorCameraInfo)
}

func (s *Sensor) SubscribeRgbdColorImage() (*Stream[*Image], error) {
	return subscribe[Image](s.r, protocol.TopicRgbdColorImage)
}

func (s *Sensor) UnsubscribeRgbdColorImage() error {
	return s.r.unsubscribe(protocol.TopicRgbdColorImage)
}

func (s *Sensor) SubscribeImu() (*Stream[*Imu], error) {
	return subscribe[Imu](s.r, protocol.TopicImu)
}

func (s *Sensor) UnsubscribeImu() error { return s.r.unsubscribe(protocol.TopicImu) }

// SubscribeLeftBinocularHighImg streams JPEG frames from the left camera at
// full resolution. Face recognition consumes this stream.
func (s *Sensor) SubscribeLeftBinocularHighImg() (*Stream[*CompressedImage], error) {
	return subscribe[CompressedImage](s.r, protocol.TopicLeftBinocularHigh)
}

func (s *Sensor) UnsubscribeLeftBinocularHighImg() error {
	return s.r.unsubscribe(protocol.TopicLeftBinocularHigh)
}

func (s *Sensor) SubscribeLeftBinocularLowImg() (*Stream[*CompressedImage], error) {
	return subscribe[CompressedImage](s.r, protocol.TopicLeftBinocularLow)
}

func (s *Sensor) UnsubscribeLeftBinocularLowImg() error {
	return s.r.unsubscribe(protocol.TopicLeftBinocularLow)
}

func (s *Sensor) SubscribeRightBinocularLowImg() (*Stream[*CompressedImage], error) {
	return subscribe[CompressedImage](s.r, protocol.TopicRightBinocularLow)
}

func (s *Sensor) UnsubscribeRightBinocularLowImg() error {
	return s.r.unsubscribe(protocol.TopicRightBinocularLow)
}

func (s *Sensor) SubscribeDepthImage() (*Stream[*Image], error) {
	return subscribe[Image](s.r, protocol.TopicDepthImage)
}

func (s *Sensor) UnsubscribeDepthImage() error { return s.r.unsubscribe(protocol.TopicDepthImage) }
