package assist

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucifer/internal/audio"
	"lucifer/internal/config"
	"lucifer/internal/remote"
	"lucifer/internal/sitegen"
	"lucifer/internal/stt"
)

type fakeRecorder struct {
	pcm   []float32
	info  audio.RecordInfo
	err   error
	block bool
}

func (f *fakeRecorder) Record(ctx context.Context, stop <-chan struct{}, autoStop bool) ([]float32, audio.RecordInfo, error) {
	if f.block {
		select {
		case <-stop:
			info := f.info
			info.StoppedByUser = true
			return f.pcm, info, nil
		case <-ctx.Done():
			return nil, audio.RecordInfo{}, ctx.Err()
		}
	}
	return f.pcm, f.info, f.err
}

type fakeTranscriber struct {
	res stt.Result
	err error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, pcm []float32) (stt.Result, error) {
	return f.res, f.err
}

type fakeChat struct {
	mu        sync.Mutex
	reply     string
	err       error
	interpret string
	gotOutput string
	delay     time.Duration
}

func (f *fakeChat) Reply(ctx context.Context, userText, language string) (string, error) {
	f.mu.Lock()
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeChat) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *fakeChat) Interpret(ctx context.Context, question, output string) string {
	f.mu.Lock()
	f.gotOutput = output
	f.mu.Unlock()
	return f.interpret
}

type fakeSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	stopped int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeSpeaker) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type fakeRemote struct {
	mu        sync.Mutex
	devices   []remote.Device
	sendOK    bool
	sentCmd   string
	sentQuery bool
	poll      remote.Poll
}

func (f *fakeRemote) ListDevices(ctx context.Context) []remote.Device { return f.devices }

func (f *fakeRemote) FindByNickname(ctx context.Context, nickname string) (remote.Device, bool) {
	want := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(nickname)), " ", "")
	for _, d := range f.devices {
		if strings.ReplaceAll(strings.ToLower(d.Nickname), " ", "") == want {
			return d, true
		}
	}
	return remote.Device{}, false
}

func (f *fakeRemote) Send(ctx context.Context, deviceID, command string, isQuery bool) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentCmd = command
	f.sentQuery = isQuery
	if !f.sendOK {
		return "", false
	}
	return "cmd-1", true
}

func (f *fakeRemote) AwaitResult(ctx context.Context, deviceID, commandID string) remote.Poll {
	return f.poll
}

type fakeSites struct {
	proj sitegen.Project
	err  error
}

func (f *fakeSites) Build(ctx context.Context, name, command string, onStep func(string)) (sitegen.Project, error) {
	if f.err != nil {
		return sitegen.Project{}, f.err
	}
	p := f.proj
	p.Name = name
	return p, nil
}

type harness struct {
	orch    *Orchestrator
	rec     *fakeRecorder
	chat    *fakeChat
	speaker *fakeSpeaker
	rem     *fakeRemote
	updates chan Turn
}

func newHarness(t *testing.T, transcript string) *harness {
	t.Helper()
	h := &harness{
		rec:     &fakeRecorder{pcm: []float32{0.5}, info: audio.RecordInfo{SpeechHeard: true}},
		chat:    &fakeChat{reply: "Certainly, Sir."},
		speaker: &fakeSpeaker{},
		rem:     &fakeRemote{sendOK: true},
		updates: make(chan Turn, 64),
	}
	h.orch = NewOrchestrator("lucifer", Deps{
		Recorder:    h.rec,
		Transcriber: &fakeTranscriber{res: stt.Result{Text: transcript, Language: "english"}},
		Chat:        h.chat,
		Speaker:     h.speaker,
		Remote:      h.rem,
		Sites:       &fakeSites{proj: sitegen.Project{ID: "p1", URL: "https://u.github.io/x"}},
		Settings:    func() config.Settings { return config.Settings{RealTimeSpeak: true} },
		OnUpdate:    func(tn Turn) { h.updates <- tn },
	})
	return h
}

func (h *harness) waitIdle(t *testing.T) Turn {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case tn := <-h.updates:
			if tn.Phase == PhaseIdle {
				return tn
			}
		case <-deadline:
			t.Fatal("turn never returned to idle")
		}
	}
}

func TestTurnPlainChat(t *testing.T) {
	h := newHarness(t, "Lucifer, how are you?")
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.Equal(t, "Lucifer, how are you?", turn.Transcript)
	assert.Equal(t, "Certainly, Sir.", turn.Reply)
	assert.Empty(t, turn.Err)
	assert.Equal(t, []string{"Certainly, Sir."}, h.speaker.all())
	// Playback of any previous reply is cut when a turn starts.
	assert.Equal(t, 1, h.speaker.stopped)
}

func TestTurnNoSpeechGoesIdleSilently(t *testing.T) {
	h := newHarness(t, "ignored")
	h.rec.info = audio.RecordInfo{SpeechHeard: false}
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.Equal(t, "no speech detected", turn.Err)
	assert.Empty(t, h.speaker.all())
}

func TestTurnCommandMarkerDispatch(t *testing.T) {
	h := newHarness(t, "Lucifer delete run.vbs from downloads on my pc")
	h.chat.reply = `Right away, Sir. Command: del "C:\Users\%USERNAME%\Downloads\run.vbs"`
	h.rem.devices = []remote.Device{{ID: "dev-1", Nickname: "my pc"}}
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.Equal(t, "Right away, Sir.", turn.Reply)
	assert.Equal(t, `del "C:\Users\%USERNAME%\Downloads\run.vbs"`, h.rem.sentCmd)
	assert.False(t, h.rem.sentQuery)
	assert.Equal(t, []string{"Right away, Sir."}, h.speaker.all())
}

func TestTurnQueryFlow(t *testing.T) {
	h := newHarness(t, "Lucifer how much space is left on my pc")
	h.chat.reply = `Let me check that, Sir. Query: powershell "Get-PSDrive C"`
	h.chat.interpret = "You have 45 GB free on your C drive, Sir."
	h.rem.devices = []remote.Device{{ID: "dev-1", Nickname: "mypc"}}
	h.rem.poll = remote.Poll{Outcome: remote.OutcomeResult, Output: "FreeGB: 45"}
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.True(t, h.rem.sentQuery)
	assert.Equal(t, "You have 45 GB free on your C drive, Sir.", turn.Reply)
	h.chat.mu.Lock()
	assert.Equal(t, "FreeGB: 45", h.chat.gotOutput)
	h.chat.mu.Unlock()
}

func TestTurnQueryTimeout(t *testing.T) {
	h := newHarness(t, "Lucifer is chrome running on my pc")
	h.chat.reply = `Checking now, Sir. Query: powershell "Get-Process chrome"`
	h.rem.devices = []remote.Device{{ID: "dev-1", Nickname: "my pc"}}
	h.rem.poll = remote.Poll{Outcome: remote.OutcomeTimedOut}
	h.orch.Trigger()

	// The wait expired, so the reply falls back to the confirmation the
	// model gave before dispatch.
	turn := h.waitIdle(t)
	assert.Equal(t, "Checking now, Sir.", turn.Reply)
	assert.Equal(t, []string{"Checking now, Sir."}, h.speaker.all())
}

func TestTurnUnknownDevice(t *testing.T) {
	h := newHarness(t, "Lucifer open notepad on ghost pc")
	h.chat.reply = "On it, Sir. Command: start notepad"
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.Contains(t, turn.Reply, `couldn't find a PC named "ghost pc"`)
}

func TestTurnMarkerWithoutNickname(t *testing.T) {
	h := newHarness(t, "Lucifer delete that file")
	h.chat.reply = `On it, Sir. Command: del "C:\tmp\x"`
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.Contains(t, turn.Reply, "specify which PC")
}

func TestTurnLocalMappingFallback(t *testing.T) {
	// No marker in the reply, but the transcript itself is a mappable
	// "open X on Y pc" phrase.
	h := newHarness(t, "Lucifer open notepad on my pc")
	h.chat.reply = "Opening notepad, Sir."
	h.rem.devices = []remote.Device{{ID: "dev-1", Nickname: "my pc"}}
	h.orch.Trigger()

	h.waitIdle(t)
	assert.Equal(t, "start notepad", h.rem.sentCmd)
}

func TestTurnWebsiteBuildPreviewAndConfirm(t *testing.T) {
	h := newHarness(t, "Lucifer build a Portfolio website for me")
	h.orch.Trigger()

	turn := h.waitIdle(t)
	require.NotNil(t, turn.PendingBuild)
	assert.Equal(t, "Portfolio", turn.PendingBuild.Name)

	proj, err := h.orch.ConfirmBuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Portfolio", proj.Name)
	assert.Nil(t, h.orch.PendingBuild())

	spoken := h.speaker.all()
	require.NotEmpty(t, spoken)
	assert.Contains(t, spoken[len(spoken)-1], "live")
}

func TestConfirmBuildWithoutPending(t *testing.T) {
	h := newHarness(t, "anything")
	_, err := h.orch.ConfirmBuild(context.Background())
	assert.Error(t, err)
}

func TestTriggerWhileListeningStops(t *testing.T) {
	h := newHarness(t, "Lucifer hello")
	h.rec.block = true
	h.orch.Trigger()

	// Wait until the turn is actually listening.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case tn := <-h.updates:
			if tn.Phase == PhaseListening {
				goto listening
			}
		case <-deadline:
			t.Fatal("never started listening")
		}
	}
listening:
	h.orch.Trigger() // acts as stop
	turn := h.waitIdle(t)
	assert.Equal(t, "Certainly, Sir.", turn.Reply)
}

func TestStaleTurnDiscarded(t *testing.T) {
	h := newHarness(t, "Lucifer hello")
	h.chat.setDelay(300 * time.Millisecond)
	h.orch.Trigger()

	// Let the first turn reach the slow chat call, then start another.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case tn := <-h.updates:
			if tn.Phase == PhaseAnalyzing {
				goto analyzing
			}
		case <-deadline:
			t.Fatal("never reached analyzing")
		}
	}
analyzing:
	h.chat.setDelay(0)
	h.orch.Trigger()

	turn := h.waitIdle(t)
	assert.Equal(t, uint64(2), turn.Seq)

	// No update from the abandoned turn may surface afterwards.
	time.Sleep(400 * time.Millisecond)
	for {
		select {
		case tn := <-h.updates:
			assert.Equal(t, uint64(2), tn.Seq)
		default:
			return
		}
	}
}
