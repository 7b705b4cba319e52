package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

// SampleRate is the capture rate expected by the transcription API.
const SampleRate = 16000

// RecordInfo summarizes a finished capture.
type RecordInfo struct {
	Duration      time.Duration
	SpeechHeard   bool
	Peak          int
	StoppedByUser bool
}

// Recorder captures mono 16 kHz audio from the default input device and
// stops on confirmed silence, the hard duration cap, or a manual stop.
type Recorder struct {
	cfg    SilenceConfig
	inited bool
}

func NewRecorder(cfg SilenceConfig) *Recorder {
	return &Recorder{cfg: cfg}
}

func (r *Recorder) Init() error {
	if r.inited {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	r.inited = true
	return nil
}

func (r *Recorder) Close() error {
	if !r.inited {
		return nil
	}
	r.inited = false
	return portaudio.Terminate()
}

// Record captures until the silence detector fires or stop is closed.
// When autoStop is false only the duration cap applies, which is the
// push-to-talk mode. The returned samples are float32 in [-1, 1].
func (r *Recorder) Record(ctx context.Context, stop <-chan struct{}, autoStop bool) ([]float32, RecordInfo, error) {
	if !r.inited {
		return nil, RecordInfo{}, fmt.Errorf("recorder not initialized")
	}

	frameLen := int(SampleRate * r.cfg.Interval / time.Second)
	frame := make([]float32, frameLen)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), frameLen, frame)
	if err != nil {
		return nil, RecordInfo{}, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, RecordInfo{}, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	started := time.Now()
	det := NewSilenceDetector(r.cfg, started)
	pcm := make([]float32, 0, SampleRate*3)
	info := RecordInfo{}

	slog.Debug("recording started",
		"auto_stop", autoStop,
		"frame_ms", r.cfg.Interval.Milliseconds())

loop:
	for {
		select {
		case <-ctx.Done():
			return nil, RecordInfo{}, ctx.Err()
		case <-stop:
			info.StoppedByUser = true
			break loop
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, RecordInfo{}, fmt.Errorf("read input stream: %w", err)
		}
		pcm = append(pcm, frame...)

		now := time.Now()
		fire := det.Observe(framePeak(frame), now)
		if !autoStop {
			fire = now.Sub(started) >= r.cfg.MaxDuration
		}
		if fire {
			break loop
		}
	}

	info.Duration = time.Since(started)
	info.SpeechHeard = det.SpeechDetected()
	info.Peak = det.Peak()

	slog.Debug("recording stopped",
		"duration", info.Duration,
		"speech", info.SpeechHeard,
		"peak", info.Peak,
		"manual", info.StoppedByUser)
	return pcm, info, nil
}

// framePeak returns the loudest absolute sample of the frame scaled to the
// int16 range, matching the units of SilenceConfig thresholds.
func framePeak(frame []float32) int {
	var peak float32
	for _, s := range frame {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return int(peak * 32767)
}
