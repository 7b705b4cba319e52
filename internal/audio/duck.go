package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var volumeRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	id     int
	volume int
	app    string
}

// Ducker lowers the volume of other PulseAudio playback streams while the
// daemon is listening, so desktop audio does not bleed into the microphone.
// Streams whose application.name matches selfApp are left alone.
type Ducker struct {
	mu       sync.Mutex
	active   bool
	selfApp  string
	factor   float64
	restored map[int]int
}

// NewDucker creates a ducker that scales foreign streams by factor (0..1).
func NewDucker(selfApp string, factor float64) *Ducker {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	return &Ducker{selfApp: selfApp, factor: factor, restored: map[int]int{}}
}

// Duck lowers all foreign streams. Safe to call when already ducked.
func (d *Ducker) Duck(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return
	}

	streams, err := listSinkInputs(ctx)
	if err != nil {
		// No pactl or no PulseAudio. Ducking is best-effort.
		slog.Debug("duck skipped", "err", err)
		return
	}

	d.restored = map[int]int{}
	for _, s := range streams {
		if s.app == d.selfApp {
			continue
		}
		target := int(float64(s.volume) * d.factor)
		if err := setSinkInputVolume(ctx, s.id, target); err != nil {
			slog.Debug("duck stream failed", "id", s.id, "err", err)
			continue
		}
		d.restored[s.id] = s.volume
	}
	d.active = true
}

// Unduck restores the volumes recorded by the last Duck. Streams that
// disappeared in the meantime are skipped.
func (d *Ducker) Unduck(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return
	}

	for id, vol := range d.restored {
		if err := setSinkInputVolume(ctx, id, vol); err != nil {
			slog.Debug("unduck stream failed", "id", id, "err", err)
		}
	}
	d.restored = map[int]int{}
	d.active = false
}

func listSinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var res []sinkInput
	blocks := strings.Split(string(out), "Sink Input #")
	for _, block := range blocks[1:] {
		nl := strings.IndexByte(block, '\n')
		if nl <= 0 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(block[:nl]))
		if err != nil {
			continue
		}

		s := sinkInput{id: id}
		for _, line := range strings.Split(block[nl+1:], "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "Volume:") && s.volume == 0 {
				if m := volumeRe.FindStringSubmatch(line); len(m) == 2 {
					s.volume, _ = strconv.Atoi(m[1])
				}
			}
			if strings.HasPrefix(line, "application.name =") && s.app == "" {
				if i := strings.Index(line, `"`); i >= 0 {
					if j := strings.Index(line[i+1:], `"`); j >= 0 {
						s.app = line[i+1 : i+1+j]
					}
				}
			}
		}
		res = append(res, s)
	}
	return res, nil
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	if percent < 0 {
		percent = 0
	}
	arg := fmt.Sprintf("%d%%", percent)
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}
