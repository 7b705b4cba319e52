package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() SilenceConfig {
	cfg := DefaultSilenceConfig()
	return cfg
}

// feed pushes samples at the configured interval starting right after from
// and returns the time of the first sample for which Observe reported stop,
// or the zero time if it never did.
func feed(d *SilenceDetector, from time.Time, interval time.Duration, amps []int) time.Time {
	at := from
	for _, a := range amps {
		at = at.Add(interval)
		if d.Observe(a, at) {
			return at
		}
	}
	return time.Time{}
}

func repeat(amp, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = amp
	}
	return out
}

func TestSilenceDetectorNoStopBeforeSpeech(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	// 5 seconds of dead silence: no stop, speech never observed.
	stopped := feed(d, start, cfg.Interval, repeat(0, 500))
	assert.True(t, stopped.IsZero())
	assert.False(t, d.SpeechDetected())
}

func TestSilenceDetectorStopsAfterConfirmedSilence(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	at := feed(d, start, cfg.Interval, repeat(2000, 50))
	require.True(t, at.IsZero())
	require.True(t, d.SpeechDetected())

	lastLoud := start.Add(50 * cfg.Interval)
	stopped := feed(d, lastLoud, cfg.Interval, repeat(100, 100))
	require.False(t, stopped.IsZero())

	// First silence sample starts the timer; stop fires once the timer
	// reaches the confirmation window.
	silenceStart := lastLoud.Add(cfg.Interval)
	assert.Equal(t, silenceStart.Add(cfg.Confirm), stopped)
}

func TestSilenceDetectorLoudSampleResetsTimer(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	samples := repeat(2000, 10)
	samples = append(samples, repeat(100, 10)...) // 100ms silence, under Confirm
	samples = append(samples, 2000)               // speech again
	samples = append(samples, repeat(100, 10)...) // another 100ms
	stopped := feed(d, start, cfg.Interval, samples)
	assert.True(t, stopped.IsZero())
}

func TestSilenceDetectorGraceIgnoresTransitional(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	// Speech, then a silence run with a transitional blip inside the
	// grace window. The blip must not reset the running timer.
	samples := repeat(2000, 5)
	samples = append(samples, 100, 100, 500, 100, 100)
	samples = append(samples, repeat(100, 20)...)
	stopped := feed(d, start, cfg.Interval, samples)
	require.False(t, stopped.IsZero())

	silenceStart := start.Add(6 * cfg.Interval)
	assert.Equal(t, silenceStart.Add(cfg.Confirm), stopped)
}

func TestSilenceDetectorTransitionalAfterGraceResets(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	// Speech, then 10 silence samples (100ms), then enough transitional
	// samples to leave the grace window. The silence run must restart.
	samples := repeat(2000, 5)
	samples = append(samples, repeat(100, 10)...)
	samples = append(samples, repeat(500, 15)...) // past the 200ms grace
	samples = append(samples, repeat(100, 100)...)
	stopped := feed(d, start, cfg.Interval, samples)
	require.False(t, stopped.IsZero())

	// Timer restarted at the first silence sample after the transitional run.
	restart := start.Add(31 * cfg.Interval)
	assert.Equal(t, restart.Add(cfg.Confirm), stopped)
}

func TestSilenceDetectorMaxDuration(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	// Continuous speech never goes silent; the hard cap still fires.
	n := int(cfg.MaxDuration/cfg.Interval) + 10
	stopped := feed(d, start, cfg.Interval, repeat(5000, n))
	require.False(t, stopped.IsZero())
	assert.Equal(t, start.Add(cfg.MaxDuration), stopped)
	assert.True(t, d.SpeechDetected())
}

func TestSilenceDetectorMaxDurationWithoutSpeech(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	n := int(cfg.MaxDuration/cfg.Interval) + 10
	stopped := feed(d, start, cfg.Interval, repeat(50, n))
	require.False(t, stopped.IsZero())
	assert.False(t, d.SpeechDetected())
}

func TestSilenceDetectorReset(t *testing.T) {
	cfg := testConfig()
	start := time.Unix(0, 0)
	d := NewSilenceDetector(cfg, start)

	d.Observe(2000, start.Add(cfg.Interval))
	require.True(t, d.SpeechDetected())
	require.Equal(t, 2000, d.Peak())

	later := start.Add(time.Minute)
	d.Reset(later)
	assert.False(t, d.SpeechDetected())
	assert.Equal(t, 0, d.Peak())

	// After reset the detector behaves like a fresh one.
	stopped := feed(d, later, cfg.Interval, repeat(100, 50))
	assert.True(t, stopped.IsZero())
}
