// Package tts synthesizes speech and plays it on the default output.
// Playback is fire-and-forget: Speak returns once audio is dispatched, and
// Stop cuts whatever is sounding right now.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/openai/openai-go/v3"
)

// Service turns text into speech via the hosted TTS model.
type Service struct {
	client openai.Client
	player *Player
	voice  openai.AudioSpeechNewParamsVoice
	speed  float64
}

func NewService(client openai.Client, player *Player) *Service {
	return &Service{
		client: client,
		player: player,
		voice:  openai.AudioSpeechNewParamsVoiceAlloy,
		speed:  1.15,
	}
}

// Speak synthesizes text and starts playback. It returns after dispatch,
// not after the audio finishes.
func (s *Service) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelGPT4oMiniTTS,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(s.speed),
	})
	if err != nil {
		return fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read speech audio: %w", err)
	}

	slog.Debug("speech synthesized", "chars", len(text), "bytes", len(data))
	return s.player.PlayMP3(data)
}

// Stop cuts current playback immediately.
func (s *Service) Stop() {
	s.player.Stop()
}

// Player owns the speaker device. Only one stream sounds at a time: a new
// PlayMP3 call silences the previous one first.
type Player struct {
	mu     sync.Mutex
	inited bool
	rate   beep.SampleRate
}

func NewPlayer() *Player { return &Player{} }

// PlayMP3 decodes and plays the buffer, returning as soon as the stream is
// handed to the speaker.
func (p *Player) PlayMP3(data []byte) error {
	streamer, format, err := mp3.Decode(nopSeekCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("decode mp3: %w", err)
	}
	return p.play(streamer, format)
}

// PlayFile plays an mp3 or ogg/vorbis file, picked by extension. Used for
// short UI cues like the listening chime.
func (p *Player) PlayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cue: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	if strings.EqualFold(filepath.Ext(path), ".ogg") {
		streamer, format, err = vorbis.Decode(f)
	} else {
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode cue %s: %w", path, err)
	}
	return p.play(streamer, format)
}

func (p *Player) play(streamer beep.StreamSeekCloser, format beep.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		return err
	}

	speaker.Clear()
	var stream beep.Streamer = streamer
	if format.SampleRate != p.rate {
		stream = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		streamer.Close()
	})))
	return nil
}

// Stop silences the speaker without tearing it down.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inited {
		speaker.Clear()
	}
}

func (p *Player) ensureSpeaker(rate beep.SampleRate) error {
	if p.inited {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	p.inited = true
	p.rate = rate
	return nil
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }
