// Package stt transcribes recorded speech.
package stt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/tidwall/gjson"

	"lucifer/internal/audio"
	"lucifer/pkg/audioconv"
)

// Result is a finished transcription.
type Result struct {
	Text string
	// Language is the detected language name, e.g. "english".
	Language string
}

// Transcriber converts raw recorder output to text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (Result, error)
}

// OpenAI transcribes through the hosted whisper model.
type OpenAI struct {
	client openai.Client
}

func NewOpenAI(client openai.Client) *OpenAI {
	return &OpenAI{client: client}
}

func (o *OpenAI) Transcribe(ctx context.Context, pcm []float32) (Result, error) {
	wavData, err := audioconv.WAVBytes(pcm, audio.SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("prepare audio: %w", err)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(wavData), "voice.wav", "audio/wav"),
		Model:          openai.AudioModelWhisper1,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return Result{}, fmt.Errorf("transcription request: %w", err)
	}

	res := Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: gjson.Get(resp.RawJSON(), "language").String(),
	}
	slog.Debug("transcription done", "chars", len(res.Text), "language", res.Language)
	return res, nil
}
