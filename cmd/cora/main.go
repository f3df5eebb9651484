// Cora — an always-on desk companion that coordinates speech output
// and decides when to speak up on its own.
//
// Usage:
//
//	cora [-verbose] [-quiet] [-voice] [-friend 0.5]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Unity-Lab-AI/cora/internal/ambient"
	"github.com/Unity-Lab-AI/cora/internal/audio"
	"github.com/Unity-Lab-AI/cora/internal/display"
	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/listen"
	"github.com/Unity-Lab-AI/cora/internal/logger"
	"github.com/Unity-Lab-AI/cora/internal/mood"
	"github.com/Unity-Lab-AI/cora/internal/presence"
	"github.com/Unity-Lab-AI/cora/internal/speech"
	"github.com/Unity-Lab-AI/cora/internal/speechlock"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".cora-logs/cora.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	voice := flag.Bool("voice", false, "enable voice input via local Whisper STT")
	whisperBin := flag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	chunkSecs := flag.Int("chunk-secs", 3, "seconds per voice recording chunk")
	friend := flag.Float64("friend", 0.5, "friend threshold in [0,1]; 0 disables unprompted speech")
	caller := flag.String("caller", "cora", "process name recorded in the shared speech lock")
	lockDir := flag.String("lock-dir", "", "directory for the cross-process speech lock (default: runtime dir)")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't spam
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the REPL quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := display.New(os.Stdout)

	// Wire dependencies. The lock is shared with sibling processes so
	// only one of us ever drives the audio device at a time.
	var lockOpts []speechlock.Option
	if *lockDir != "" {
		lockOpts = append(lockOpts, speechlock.WithDir(*lockDir))
	}
	lock, err := speechlock.New(*caller, log, lockOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: speech lock init failed: %v\n", err)
		os.Exit(1)
	}
	defer lock.Release()

	echo := speech.NewEchoSuppressor()
	gate := presence.New(speech.AlwaysPresent{}, log)

	// Pick the synthesizer: Azure TTS when credentials are set, a
	// logging no-op otherwise.
	var synth domain.Synthesizer = speech.NewNoOpSynthesizer(log)
	var player *audio.Player

	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)

	if azureKey != "" && azureRegion != "" && !*noSpeech {
		player, err = audio.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, speech disabled: %v", err)
			player = nil
		} else {
			synth = speech.NewAzureSynthesizer(azureKey, azureRegion, player, log)
			log.Info("TTS enabled (voice=%s, region=%s)", speech.DefaultVoice, azureRegion)
		}
	} else if !*noSpeech {
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	}

	mouth := speech.NewMouth(synth, log,
		speech.WithLock(lock),
		speech.WithPresenceGate(gate),
		speech.WithEchoSuppressor(echo),
	)
	mouth.OnSpeakStart = func(text string) { ui.Speech(text) }
	mouth.Start(ctx)
	defer mouth.Stop()

	moodState := mood.NewState()

	// The ambient scheduler watches transcripts and fires interjection
	// events; we turn those into low-priority queued speech, preceded
	// by a chime so unprompted speech never startles.
	scheduler := ambient.NewScheduler(*friend, log)
	if err := scheduler.Start(ctx, func(ev ambient.Event) {
		ui.Interjection(ev)
		if player != nil {
			if err := player.Chime(); err != nil {
				log.Warn("chime failed: %v", err)
			}
		}
		line := speech.LineInterjection(ev)
		mouth.Say(line, mood.DetectEmotion(line), domain.PriorityLow)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: scheduler start failed: %v\n", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	// Build voice input (STT) if enabled. The echo suppressor is the
	// gate, so the microphone never hears the assistant's own voice.
	var ear *listen.Ear
	if *voice {
		if _, err := os.Stat(*whisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", *whisperModel)
			os.Exit(1)
		}
		ear = listen.NewEar(*whisperBin, *whisperModel, echo, log,
			listen.WithChunkDuration(time.Duration(*chunkSecs)*time.Second),
			listen.WithBusyCheck(mouth.IsSpeaking),
		)
		go ear.Run(ctx)
		log.Info("voice input enabled (bin=%s, model=%s, chunk=%ds)", *whisperBin, *whisperModel, *chunkSecs)
	}

	app := &cliApp{
		mouth:     mouth,
		echo:      echo,
		mood:      moodState,
		scheduler: scheduler,
		lock:      lock,
		ear:       ear,
		log:       log,
		ui:        ui,
	}

	ui.Banner()
	if ear != nil {
		fmt.Println("  Listening passively — just talk, or type below.")
	}
	fmt.Println("  Type '/help' for commands, 'quit' to exit.")
	fmt.Println()

	app.run(ctx)
}

type cliApp struct {
	mouth     *speech.Mouth
	echo      *speech.EchoSuppressor
	mood      *mood.State
	scheduler *ambient.Scheduler
	lock      domain.Locker
	ear       *listen.Ear // nil when voice input is disabled
	log       *logger.Logger
	ui        *display.Console
}

func (a *cliApp) run(ctx context.Context) {
	a.mouth.Say(speech.LineWelcome(), domain.EmotionWarm, domain.PriorityNormal)

	// Keyboard input feeds the same path as voice transcripts.
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case inputCh <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// Voice channel (nil-safe: receiving on a nil channel blocks forever,
	// which is fine — select will only use the keyboard case).
	var voiceCh <-chan string
	if a.ear != nil {
		voiceCh = a.ear.C()
	}

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-inputCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "quit" || input == "exit" {
			a.mouth.Say(speech.LineBye(), domain.EmotionGentle, domain.PriorityNormal)
			// Brief pause so TTS can start the goodbye line.
			time.Sleep(300 * time.Millisecond)
			return
		}

		if strings.HasPrefix(input, "/") {
			a.handleCommand(input)
			continue
		}

		a.hear(input)
	}
}

// hear treats text as something the user said near the assistant:
// show it, nudge the mood, and let the scheduler decide whether it is
// worth speaking up about.
func (a *cliApp) hear(text string) {
	a.ui.Heard(text)
	if ev, ok := moodEventFor(text); ok {
		a.mood.Apply(ev)
	}
	a.scheduler.UpdateAudioContext(text)
}

func (a *cliApp) handleCommand(input string) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		a.showHelp()

	case "/status":
		a.ui.Status(a.scheduler.Status(), a.echo.Status(), a.mouth.PendingCount(), a.lock.WhoHolds())

	case "/mood":
		a.ui.Mood(a.mood.Snapshot())

	case "/say":
		if arg == "" {
			a.ui.Alert("usage: /say <text>")
			return
		}
		a.mouth.Say(arg, mood.DetectEmotion(arg), domain.PriorityNormal)

	case "/urgent":
		if arg == "" {
			a.ui.Alert("usage: /urgent <text>")
			return
		}
		a.mouth.SayNow(arg, domain.EmotionUrgent)

	case "/clear":
		a.mouth.Clear()

	case "/repeat":
		last := a.mouth.LastSpoken()
		if last == "" {
			a.mouth.Say(speech.LineNothingToRepeat(), domain.EmotionNeutral, domain.PriorityLow)
			return
		}
		a.mouth.Say(last, mood.DetectEmotion(last), domain.PriorityNormal)

	case "/friend":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			a.ui.Alert("usage: /friend <0..1>")
			return
		}
		a.scheduler.SetFriendThreshold(v)
		a.log.Info("friend threshold set to %.2f", a.scheduler.FriendThreshold())

	case "/event":
		ev, ok := mood.ParseEvent(arg)
		if !ok {
			a.ui.Alert("unknown event: " + arg)
			return
		}
		a.mood.Apply(ev)
		a.ui.Mood(a.mood.Snapshot())

	case "/mute":
		if a.ear == nil {
			a.ui.Alert("voice input is not enabled")
			return
		}
		a.ear.Mute()

	case "/unmute":
		if a.ear == nil {
			a.ui.Alert("voice input is not enabled")
			return
		}
		a.ear.Unmute()

	default:
		a.ui.Alert("unknown command: " + cmd)
	}
}

func (a *cliApp) showHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /status          Show scheduler, echo, queue, and lock state")
	fmt.Println("  /mood            Show the current mood snapshot")
	fmt.Println("  /say <text>      Queue text to be spoken")
	fmt.Println("  /urgent <text>   Clear the queue and speak immediately")
	fmt.Println("  /repeat          Replay the last thing the assistant said")
	fmt.Println("  /clear           Drop all pending speech")
	fmt.Println("  /friend <0..1>   Adjust how chatty the assistant is")
	fmt.Println("  /event <name>    Apply a mood event (e.g. compliment, error)")
	fmt.Println("  /mute, /unmute   Toggle the microphone")
	fmt.Println("  /help            Show this message")
	fmt.Println("  quit / exit      Shut down")
	fmt.Println()
	fmt.Println("Anything else is treated as overheard speech.")
}

// moodEventFor maps obvious conversational cues to mood events. The
// richer signal path is the ambient scheduler; this only catches direct
// reactions to the assistant itself.
func moodEventFor(text string) (mood.EventType, bool) {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "thank", "great job", "well done", "you're the best", "good bot"):
		return mood.EventCompliment, true
	case containsAny(lower, "stupid", "useless", "shut up", "you suck"):
		return mood.EventInsult, true
	case containsAny(lower, "ugh", "come on", "damn it", "this is broken", "not again"):
		return mood.EventUserFrustration, true
	case hasAnyPrefix(lower, "hello", "hey", "hi ", "good morning", "good evening"):
		return mood.EventGreeting, true
	}
	return 0, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
