package stt

import (
	"context"
	"strings"

	localstt "lucifer/pkg/stt"
)

// Local adapts the whisper.cpp transcriber to the Transcriber interface.
type Local struct {
	w *localstt.Whisper
}

func NewLocal(w *localstt.Whisper) *Local {
	return &Local{w: w}
}

func (l *Local) Transcribe(ctx context.Context, pcm []float32) (Result, error) {
	res, err := l.w.TranscribePCM(ctx, pcm)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:     strings.TrimSpace(res.Text),
		Language: res.Language,
	}, nil
}
