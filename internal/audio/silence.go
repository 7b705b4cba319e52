package audio

import "time"

// SilenceConfig holds the amplitude bands and timing windows that drive
// automatic end-of-utterance detection. Amplitudes are peak values scaled
// to the int16 range (0..32767).
type SilenceConfig struct {
	// SpeechThreshold and above counts as speech.
	SpeechThreshold int
	// Below SilenceThreshold counts as silence. Values between the two
	// thresholds are transitional and mostly ignored.
	SilenceThreshold int
	// Confirm is how long silence must persist before recording stops.
	Confirm time.Duration
	// Grace is the window after a speech-band sample during which
	// transitional samples are treated as trailing speech energy.
	Grace time.Duration
	// MaxDuration caps a single recording regardless of activity.
	MaxDuration time.Duration
	// Interval is the expected sampling cadence.
	Interval time.Duration
}

// DefaultSilenceConfig returns the tuning used by the daemon.
func DefaultSilenceConfig() SilenceConfig {
	return SilenceConfig{
		SpeechThreshold:  800,
		SilenceThreshold: 250,
		Confirm:          150 * time.Millisecond,
		Grace:            200 * time.Millisecond,
		MaxDuration:      10 * time.Second,
		Interval:         10 * time.Millisecond,
	}
}

// SilenceDetector decides when an utterance has ended from a stream of
// periodic amplitude samples. It never signals stop before speech has been
// observed, so a recording that starts in silence keeps running until the
// speaker begins or MaxDuration elapses.
type SilenceDetector struct {
	cfg SilenceConfig

	start        time.Time
	speechSeen   bool
	lastLoud     time.Time
	silenceSince time.Time
	inSilence    bool
	peak         int
}

func NewSilenceDetector(cfg SilenceConfig, now time.Time) *SilenceDetector {
	return &SilenceDetector{cfg: cfg, start: now}
}

// Reset rearms the detector for a new utterance.
func (d *SilenceDetector) Reset(now time.Time) {
	d.start = now
	d.speechSeen = false
	d.lastLoud = time.Time{}
	d.silenceSince = time.Time{}
	d.inSilence = false
	d.peak = 0
}

// Observe feeds one amplitude sample taken at now and reports whether the
// recording should stop.
func (d *SilenceDetector) Observe(amp int, now time.Time) bool {
	if amp > d.peak {
		d.peak = amp
	}
	if now.Sub(d.start) >= d.cfg.MaxDuration {
		return true
	}

	switch {
	case amp >= d.cfg.SpeechThreshold:
		d.speechSeen = true
		d.lastLoud = now
		d.inSilence = false

	case amp < d.cfg.SilenceThreshold:
		if !d.speechSeen {
			return false
		}
		if !d.inSilence {
			d.inSilence = true
			d.silenceSince = now
			return false
		}
		if now.Sub(d.silenceSince) >= d.cfg.Confirm {
			return true
		}

	default:
		// Transitional band. Inside the grace window it is trailing
		// speech energy and leaves the silence timer untouched;
		// outside it the silence run is broken.
		if !d.speechSeen || now.Sub(d.lastLoud) > d.cfg.Grace {
			d.inSilence = false
		}
	}
	return false
}

// SpeechDetected reports whether any speech-band sample has been observed
// since the last Reset.
func (d *SilenceDetector) SpeechDetected() bool { return d.speechSeen }

// Peak returns the loudest amplitude observed since the last Reset.
func (d *SilenceDetector) Peak() int { return d.peak }
