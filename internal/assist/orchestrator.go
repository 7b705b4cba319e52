package assist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lucifer/internal/audio"
	"lucifer/internal/chat"
	"lucifer/internal/config"
	"lucifer/internal/remote"
	"lucifer/internal/sitegen"
	"lucifer/internal/stt"
)

// Phase is where a voice turn currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseListening
	PhaseTranscribing
	PhaseAnalyzing
	PhaseQueryingRemote
	PhaseSpeaking
)

func (p Phase) String() string {
	switch p {
	case PhaseListening:
		return "listening"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseQueryingRemote:
		return "querying_remote"
	case PhaseSpeaking:
		return "speaking"
	default:
		return "idle"
	}
}

// BuildRequest is a website build awaiting user confirmation.
type BuildRequest struct {
	Name    string
	Command string
}

// Turn is the externally visible state of the current voice interaction.
type Turn struct {
	Seq          uint64
	Phase        Phase
	Transcript   string
	Language     string
	Reply        string
	Err          string
	PendingBuild *BuildRequest
	SiteURL      string
}

// Recorder captures one utterance.
type Recorder interface {
	Record(ctx context.Context, stop <-chan struct{}, autoStop bool) ([]float32, audio.RecordInfo, error)
}

// Chatter is the conversational model.
type Chatter interface {
	Reply(ctx context.Context, userText, language string) (string, error)
	Interpret(ctx context.Context, question, output string) string
}

// Speaker plays synthesized speech. Speak returns once playback is
// dispatched; Stop cuts whatever is sounding.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// Channel is the remote PC command store.
type Channel interface {
	FindByNickname(ctx context.Context, nickname string) (remote.Device, bool)
	Send(ctx context.Context, deviceID, command string, isQuery bool) (string, bool)
	AwaitResult(ctx context.Context, deviceID, commandID string) remote.Poll
	ListDevices(ctx context.Context) []remote.Device
}

// SiteBuilder runs the website pipeline.
type SiteBuilder interface {
	Build(ctx context.Context, name, command string, onStep func(string)) (sitegen.Project, error)
}

// Deps are the services a turn runs through.
type Deps struct {
	Recorder    Recorder
	Transcriber stt.Transcriber
	Chat        Chatter
	Speaker     Speaker
	Remote      Channel
	Sites       SiteBuilder
	// Settings is read at the start of each turn.
	Settings func() config.Settings
	// OnListen fires when capture starts, for cues and ducking.
	OnListen func()
	// OnIdle fires when the daemon returns to idle.
	OnIdle func()
	// OnUpdate receives every state change.
	OnUpdate func(Turn)
}

// Orchestrator drives voice turns. A new trigger always wins: it stops
// playback, abandons the previous turn, and starts listening. Results of
// abandoned turns are discarded by sequence number.
type Orchestrator struct {
	classifier Classifier
	deps       Deps

	mu      sync.Mutex
	seq     uint64
	turn    Turn
	stopCh  chan struct{}
	cancel  context.CancelFunc
	pending *BuildRequest
}

func NewOrchestrator(wakeWord string, deps Deps) *Orchestrator {
	if deps.Settings == nil {
		deps.Settings = func() config.Settings { return config.Settings{RealTimeSpeak: true} }
	}
	return &Orchestrator{
		classifier: NewClassifier(wakeWord),
		deps:       deps,
	}
}

// Trigger starts a new voice turn. While listening it acts as the stop
// button instead, so a second trigger ends the recording early.
func (o *Orchestrator) Trigger() {
	o.mu.Lock()

	if o.turn.Phase == PhaseListening {
		if o.stopCh != nil {
			close(o.stopCh)
			o.stopCh = nil
		}
		o.mu.Unlock()
		return
	}

	// Abandon whatever is in flight.
	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.seq++
	seq := o.seq
	stop := make(chan struct{})
	o.stopCh = stop
	o.mu.Unlock()

	o.deps.Speaker.Stop()
	go o.runTurn(ctx, seq, stop)
}

// StopListening ends an active recording without starting a new turn.
func (o *Orchestrator) StopListening() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.turn.Phase == PhaseListening && o.stopCh != nil {
		close(o.stopCh)
		o.stopCh = nil
	}
}

// Status returns a snapshot of the current turn.
func (o *Orchestrator) Status() Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.turn
}

// publish applies mutate to the turn unless seq is stale, and reports
// whether the turn is still current.
func (o *Orchestrator) publish(seq uint64, mutate func(*Turn)) bool {
	o.mu.Lock()
	if seq != o.seq {
		o.mu.Unlock()
		return false
	}
	mutate(&o.turn)
	o.turn.Seq = seq
	snapshot := o.turn
	o.mu.Unlock()

	if o.deps.OnUpdate != nil {
		o.deps.OnUpdate(snapshot)
	}
	if snapshot.Phase == PhaseIdle && o.deps.OnIdle != nil {
		o.deps.OnIdle()
	}
	return true
}

func (o *Orchestrator) runTurn(ctx context.Context, seq uint64, stop <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn panicked", "seq", seq, "panic", r)
			o.publish(seq, func(t *Turn) {
				t.Phase = PhaseIdle
				t.Err = fmt.Sprintf("internal error: %v", r)
			})
		}
	}()

	settings := o.deps.Settings()

	if !o.publish(seq, func(t *Turn) {
		*t = Turn{Phase: PhaseListening, PendingBuild: t.PendingBuild}
	}) {
		return
	}
	if o.deps.OnListen != nil {
		o.deps.OnListen()
	}

	pcm, info, err := o.deps.Recorder.Record(ctx, stop, !settings.PushToTalk)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.fail(seq, fmt.Sprintf("recording failed: %v", err))
		return
	}
	if !info.SpeechHeard && !info.StoppedByUser {
		slog.Info("no speech detected", "seq", seq, "duration", info.Duration)
		o.fail(seq, "no speech detected")
		return
	}

	if !o.publish(seq, func(t *Turn) { t.Phase = PhaseTranscribing }) {
		return
	}

	res, err := o.deps.Transcriber.Transcribe(ctx, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.fail(seq, fmt.Sprintf("transcription failed: %v", err))
		return
	}
	if res.Text == "" {
		o.fail(seq, "could not make out any words")
		return
	}

	if !o.publish(seq, func(t *Turn) {
		t.Phase = PhaseAnalyzing
		t.Transcript = res.Text
		t.Language = res.Language
	}) {
		return
	}
	slog.Info("transcript", "seq", seq, "text", res.Text, "language", res.Language)

	if o.classifier.Classify(res.Text) == KindWebsiteBuild {
		o.prepareBuild(ctx, seq, res.Text, settings)
		return
	}

	reply, err := o.deps.Chat.Reply(ctx, res.Text, res.Language)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("chat failed", "seq", seq, "err", err)
		o.speakAndIdle(ctx, seq, chat.Apology, settings)
		return
	}

	rc, hasMarker := SplitReplyMarker(reply)
	nickname, cmdPart, hasTarget := DeviceTarget(res.Text, o.classifier.WakeWord)

	// Even without a marker, a clear "do X on Y pc" phrasing can be
	// resolved locally from the mapping table.
	if !hasMarker && hasTarget {
		if local, ok := LocalCommand(cmdPart); ok {
			rc = ReplyCommand{Visible: reply, Payload: local}
			hasMarker = true
		}
	}

	if !hasMarker {
		o.speakAndIdle(ctx, seq, rc.Visible, settings)
		return
	}
	if !hasTarget {
		o.speakAndIdle(ctx, seq, "Please specify which PC you want to control, Sir.", settings)
		return
	}

	o.dispatchRemote(ctx, seq, res.Text, nickname, rc, settings)
}

func (o *Orchestrator) dispatchRemote(ctx context.Context, seq uint64, transcript, nickname string, rc ReplyCommand, settings config.Settings) {
	device, ok := o.deps.Remote.FindByNickname(ctx, nickname)
	if !ok {
		o.speakAndIdle(ctx, seq, fmt.Sprintf("I couldn't find a PC named %q, Sir.", nickname), settings)
		return
	}

	cmdID, ok := o.deps.Remote.Send(ctx, device.ID, rc.Payload, rc.IsQuery)
	if !ok {
		o.speakAndIdle(ctx, seq, fmt.Sprintf("Failed to send the command to %s, Sir.", device.Nickname), settings)
		return
	}

	if !rc.IsQuery {
		o.speakAndIdle(ctx, seq, rc.Visible, settings)
		return
	}

	if !o.publish(seq, func(t *Turn) { t.Phase = PhaseQueryingRemote }) {
		return
	}

	poll := o.deps.Remote.AwaitResult(ctx, device.ID, cmdID)
	switch poll.Outcome {
	case remote.OutcomeResult:
		answer := o.deps.Chat.Interpret(ctx, transcript, poll.Output)
		o.speakAndIdle(ctx, seq, answer, settings)
	case remote.OutcomeTimedOut:
		// No result in time: fall back to the confirmation the model
		// already phrased for this command.
		o.speakAndIdle(ctx, seq, rc.Visible, settings)
	default:
		if ctx.Err() != nil {
			return
		}
		o.speakAndIdle(ctx, seq, "I couldn't reach the command store, Sir.", settings)
	}
}

func (o *Orchestrator) prepareBuild(ctx context.Context, seq uint64, transcript string, settings config.Settings) {
	req := &BuildRequest{
		Name:    WebsiteName(transcript),
		Command: transcript,
	}

	o.mu.Lock()
	o.pending = req
	o.mu.Unlock()

	o.publish(seq, func(t *Turn) { t.PendingBuild = req })
	msg := fmt.Sprintf("I can build %s for you, Sir. Confirm when you're ready.", req.Name)
	o.speakAndIdle(ctx, seq, msg, settings)
}

// PendingBuild returns the build awaiting confirmation, if any.
func (o *Orchestrator) PendingBuild() *BuildRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// ConfirmBuild runs the pending website build. It is synchronous; callers
// wanting progress watch OnUpdate.
func (o *Orchestrator) ConfirmBuild(ctx context.Context) (sitegen.Project, error) {
	o.mu.Lock()
	req := o.pending
	o.mu.Unlock()
	if req == nil {
		return sitegen.Project{}, fmt.Errorf("no build awaiting confirmation")
	}
	if o.deps.Sites == nil {
		return sitegen.Project{}, fmt.Errorf("website builder not configured")
	}

	o.mu.Lock()
	seq := o.seq
	o.mu.Unlock()

	proj, err := o.deps.Sites.Build(ctx, req.Name, req.Command, func(step string) {
		slog.Info("build step", "project", req.Name, "step", step)
	})
	if err != nil {
		o.speakAndIdle(ctx, seq, "The website build failed, Sir.", o.deps.Settings())
		return sitegen.Project{}, err
	}

	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
	o.publish(seq, func(t *Turn) {
		t.PendingBuild = nil
		t.SiteURL = proj.URL
	})

	msg := fmt.Sprintf("%s is live, Sir.", proj.Name)
	o.speakAndIdle(ctx, seq, msg, o.deps.Settings())
	return proj, nil
}

// DismissBuild drops the pending build request.
func (o *Orchestrator) DismissBuild() {
	o.mu.Lock()
	o.pending = nil
	seq := o.seq
	o.mu.Unlock()

	o.publish(seq, func(t *Turn) { t.PendingBuild = nil })
}

func (o *Orchestrator) fail(seq uint64, msg string) {
	o.publish(seq, func(t *Turn) {
		t.Phase = PhaseIdle
		t.Err = msg
	})
}

func (o *Orchestrator) speakAndIdle(ctx context.Context, seq uint64, text string, settings config.Settings) {
	if !o.publish(seq, func(t *Turn) {
		t.Phase = PhaseSpeaking
		t.Reply = text
	}) {
		return
	}

	if settings.RealTimeSpeak && text != "" {
		if err := o.deps.Speaker.Speak(ctx, text); err != nil && ctx.Err() == nil {
			slog.Error("speech failed", "seq", seq, "err", err)
		}
	}

	o.publish(seq, func(t *Turn) { t.Phase = PhaseIdle })
}
