// Package notify plays short interface cues.
package notify

import "log/slog"

// Notifier plays the attention chime through the shared audio player.
// Cues are best-effort: a missing or broken file is logged, never fatal.
type Notifier struct {
	play func(path string) error
	cue  string
}

// New wires the notifier to a playback function, typically
// (*tts.Player).PlayFile. An empty cuePath disables the chime.
func New(play func(string) error, cuePath string) *Notifier {
	return &Notifier{play: play, cue: cuePath}
}

// Listening signals that the daemon started capturing.
func (n *Notifier) Listening() {
	if n.cue == "" {
		return
	}
	if err := n.play(n.cue); err != nil {
		slog.Warn("listen cue failed", "path", n.cue, "err", err)
	}
}
