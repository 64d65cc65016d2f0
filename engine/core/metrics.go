package core

import "github.com/spaghettifunk/lumen/engine/containers"

const AVG_COUNT int = 30

// fpsSmoothing weights the previous smoothed value in the exponential average.
const fpsSmoothing = 0.95

type Metrics struct {
	samples            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	smoothedFPS        float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		samples: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update feeds the duration of the last frame, in seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.samples.Push(frameMS)

	sum := 0.0
	m.samples.Each(func(v float64) { sum += v })
	m.msAvg = sum / float64(m.samples.Len())

	if frameElapsedTime > 0 {
		m.smoothedFPS = fpsSmoothing*m.smoothedFPS + (1-fpsSmoothing)*(1.0/frameElapsedTime)
	}

	// Calculate Frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	// Count all Frames.
	m.frames++
}

// FPS is the number of frames counted over the last full second.
func (m *Metrics) FPS() float64 {
	return m.fps
}

// SmoothedFPS is an exponential moving average of 1/dt.
func (m *Metrics) SmoothedFPS() float64 {
	return m.smoothedFPS
}

// FrameTime is the rolling average frame time in milliseconds.
func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
