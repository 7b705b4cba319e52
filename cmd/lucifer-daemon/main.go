package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"lucifer/internal/assist"
	"lucifer/internal/audio"
	"lucifer/internal/chat"
	"lucifer/internal/config"
	"lucifer/internal/ipc"
	"lucifer/internal/notify"
	"lucifer/internal/proxy"
	"lucifer/internal/remote"
	"lucifer/internal/sitegen"
	"lucifer/internal/stt"
	"lucifer/internal/tts"
	localstt "lucifer/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// projectStore adapts the remote command channel into the website
// builder's project log.
type projectStore struct {
	remote *remote.Client
}

func (s projectStore) SaveProject(ctx context.Context, p sitegen.Project) error {
	return s.remote.CreateProject(ctx, p.ID, p.Name, p.Command, p.URL)
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address (empty = direct)")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	logFile := cli.String("log-file", "", "Log file path (empty = stdout)")
	chime := cli.String("chime", "", "Listening cue sound file (mp3 or ogg)")
	whisperModel := cli.String("whisper-model", "", "Local whisper model path (empty = API transcription)")
	wakeWord := cli.String("wake-word", assist.DefaultWakeWord, "Wake word for build requests")
	duck := cli.Bool("duck", false, "Duck other audio streams while listening")
	settingsPath := cli.String("settings", defaultSettingsPath(), "User settings file")
	cli.Parse()

	var logOut io.Writer = os.Stdout
	if *logFile != "" {
		logOut = &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     14,
		}
	}
	log.SetDefault(log.New(tint.NewHandler(logOut, &tint.Options{
		Level:   logLevelMap[*logLevel],
		NoColor: *logFile != "",
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Error("OPENAI_API_KEY not set")
		os.Exit(1)
	}

	log.Debug("Loaded API key")

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if *proxyAddr != "" {
		httpClient, err := proxy.NewSocksClient(*proxyAddr)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
		log.Debug("Loaded proxy", "addr", *proxyAddr)
	}
	client := openai.NewClient(opts...)

	rec := audio.NewRecorder(audio.DefaultSilenceConfig())
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	var transcriber stt.Transcriber
	if *whisperModel != "" {
		w, err := localstt.NewWhisper(*whisperModel, localstt.Options{Language: "auto"})
		if err != nil {
			log.Error("Failed to init whisper", "model", *whisperModel, "err", err)
			os.Exit(1)
		}
		defer w.Close()
		transcriber = stt.NewLocal(w)
		log.Debug("Loaded local whisper", "model", *whisperModel)
	} else {
		transcriber = stt.NewOpenAI(client)
	}

	player := tts.NewPlayer()
	voice := tts.NewService(client, player)
	cue := notify.New(player.PlayFile, *chime)

	var ducker *audio.Ducker
	if *duck {
		ducker = audio.NewDucker("lucifer", 0.3)
	}

	settings := config.Load(*settingsPath)
	convo := chat.NewService(client)

	channel := remote.NewClient(remote.Config{
		BaseURL:   os.Getenv("FIRESTORE_BASE_URL"),
		ProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),
		APIKey:    os.Getenv("FIRESTORE_API_KEY"),
	})

	var sites assist.SiteBuilder
	ghToken := os.Getenv("GITHUB_TOKEN")
	ghUser := os.Getenv("GITHUB_USERNAME")
	if ghToken != "" && ghUser != "" {
		repo := os.Getenv("GITHUB_PAGES_REPO")
		if repo == "" {
			repo = "lucifer-websites"
		}
		pub := sitegen.NewGitHub(ghToken, ghUser, repo)
		sites = sitegen.NewService(client, pub, projectStore{remote: channel})
		log.Debug("Loaded website builder", "repo", repo)
	} else {
		log.Warn("GITHUB_TOKEN or GITHUB_USERNAME not set, website builds disabled")
	}

	orch := assist.NewOrchestrator(*wakeWord, assist.Deps{
		Recorder:    rec,
		Transcriber: transcriber,
		Chat:        convo,
		Speaker:     voice,
		Remote:      channel,
		Sites:       sites,
		Settings:    settings.Get,
		OnListen: func() {
			cue.Listening()
			if ducker != nil {
				ducker.Duck(context.Background())
			}
		},
		OnIdle: func() {
			if ducker != nil {
				ducker.Unduck(context.Background())
			}
		},
		OnUpdate: func(t assist.Turn) {
			log.Debug("turn update", "seq", t.Seq, "phase", t.Phase, "err", t.Err)
		},
	})

	if err := ipc.StartServer(func(req ipc.Request) ipc.Response {
		return handle(orch, convo, channel, settings, req)
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutting down")
}

func handle(orch *assist.Orchestrator, convo *chat.Service, channel *remote.Client, settings *config.Store, req ipc.Request) ipc.Response {
	switch req.Cmd {
	case ipc.CmdTrigger:
		orch.Trigger()
		return ipc.Response{OK: true}

	case ipc.CmdStop:
		orch.StopListening()
		return ipc.Response{OK: true}

	case ipc.CmdStatus:
		t := orch.Status()
		text := t.Phase.String()
		if t.Transcript != "" {
			text += ": " + t.Transcript
		}
		if t.Err != "" {
			text += " (" + t.Err + ")"
		}
		return ipc.Response{OK: true, Text: text}

	case ipc.CmdConfirm:
		if orch.PendingBuild() == nil {
			return ipc.Response{OK: false, Text: "no build awaiting confirmation"}
		}
		go func() {
			if _, err := orch.ConfirmBuild(context.Background()); err != nil {
				log.Error("website build failed", "err", err)
			}
		}()
		return ipc.Response{OK: true, Text: "build started"}

	case ipc.CmdDismiss:
		orch.DismissBuild()
		return ipc.Response{OK: true}

	case ipc.CmdSet:
		return handleSet(settings, req)

	case ipc.CmdDevices:
		devices := channel.ListDevices(context.Background())
		if len(devices) == 0 {
			return ipc.Response{OK: true, Text: "no devices registered"}
		}
		names := make([]string, 0, len(devices))
		for _, d := range devices {
			names = append(names, fmt.Sprintf("%s (%s)", d.Nickname, d.Hostname))
		}
		return ipc.Response{OK: true, Text: strings.Join(names, "\n")}

	case ipc.CmdReset:
		convo.History().Clear()
		return ipc.Response{OK: true, Text: "history cleared"}

	default:
		log.Warn("Unknown command", "cmd", req.Cmd)
		return ipc.Response{OK: false, Text: "unknown command: " + req.Cmd}
	}
}

func handleSet(settings *config.Store, req ipc.Request) ipc.Response {
	on := req.Value == "true" || req.Value == "on" || req.Value == "1"

	var err error
	switch req.Key {
	case "real_time_speak":
		err = settings.SetRealTimeSpeak(on)
	case "push_to_talk":
		err = settings.SetPushToTalk(on)
	default:
		return ipc.Response{OK: false, Text: "unknown setting: " + req.Key}
	}
	if err != nil {
		return ipc.Response{OK: false, Text: err.Error()}
	}
	return ipc.Response{OK: true, Text: fmt.Sprintf("%s = %v", req.Key, on)}
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "lucifer-settings.json"
	}
	return filepath.Join(dir, "lucifer", "settings.json")
}
