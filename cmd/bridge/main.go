package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ottobit/simbridge/pkg/actionsocket"
	"github.com/ottobit/simbridge/pkg/channel"
	"github.com/ottobit/simbridge/pkg/device"
	"github.com/ottobit/simbridge/pkg/gamestate"
	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/ottobit/simbridge/pkg/program"
	"github.com/ottobit/simbridge/pkg/repositories"
	"github.com/ottobit/simbridge/pkg/state"
	"github.com/ottobit/simbridge/pkg/version"
	"github.com/ottobit/simbridge/pkg/workspace"
)

func main() {
	simulatorURL := flag.String("simulator-url", "ws://localhost:8890/bridge", "Simulator WebSocket endpoint")
	mapKey := flag.String("map", "", "Map key to load")
	programFile := flag.String("program", "", "Path to a compiled program JSON file")
	workspaceFile := flag.String("workspace", "", "Path to a workspace JSON file (compiled before running)")
	dbPath := flag.String("db", "bridge.db", "SQLite database path")
	dbURL := flag.String("db-url", "", "Postgres connection string (overrides -db)")
	roomID := flag.String("room", "", "Relay room to push the action stream to (optional)")
	relayHost := flag.String("relay-host", actionsocket.DefaultHost, "Relay host")
	relayPort := flag.Int("relay-port", actionsocket.DefaultPort, "Relay port")
	uploadDevice := flag.Bool("upload", false, "Upload the compiled program to a connected micro:bit")
	runTimeout := flag.Duration("run-timeout", 2*time.Minute, "Time to wait for the run to finish")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(log.Options{Level: parsedLogLevel}))

	log.Info("Starting bridge version %s", version.Get())

	if *mapKey == "" {
		fmt.Fprintln(os.Stderr, "-map is required")
		os.Exit(1)
	}

	prog, err := loadProgram(*programFile, *workspaceFile)
	if err != nil {
		log.Error("Failed to load program: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var repository repositories.Repository
	if *dbURL != "" {
		repository, err = repositories.NewPostgresRepository(ctx, *dbURL)
	} else {
		repository, err = repositories.NewSQLiteRepository(ctx, *dbPath)
	}
	if err != nil {
		log.Error("Failed to open repository: %v", err)
		os.Exit(1)
	}
	defer repository.Close(ctx)

	manager := state.NewGameStateManager(ctx, repository)

	if err := run(ctx, runOptions{
		simulatorURL: *simulatorURL,
		mapKey:       *mapKey,
		program:      prog,
		manager:      manager,
		roomID:       *roomID,
		relay:        actionsocket.Options{Host: *relayHost, Port: *relayPort},
		uploadDevice: *uploadDevice,
		runTimeout:   *runTimeout,
	}); err != nil {
		log.Error("Run failed: %v", err)
		os.Exit(1)
	}

	log.Info("Best score for %s: %.0f (completion %.1f%%)",
		*mapKey, manager.GetBestScore(*mapKey), manager.GetCompletionRate(*mapKey))
}

func loadProgram(programFile, workspaceFile string) (*messages.ProgramData, error) {
	switch {
	case programFile != "":
		b, err := os.ReadFile(programFile)
		if err != nil {
			return nil, err
		}
		prog := &messages.ProgramData{}
		if err := json.Unmarshal(b, prog); err != nil {
			return nil, fmt.Errorf("failed to parse program: %v", err)
		}
		return prog, nil

	case workspaceFile != "":
		b, err := os.ReadFile(workspaceFile)
		if err != nil {
			return nil, err
		}
		ws, err := workspace.LoadJSON(b)
		if err != nil {
			return nil, err
		}
		workspace.AttachShadowReconciler(ws)
		ws.FinishLoading()
		ws.Flush()
		return program.Compile(ws)

	default:
		return nil, fmt.Errorf("either -program or -workspace is required")
	}
}

type runOptions struct {
	simulatorURL string
	mapKey       string
	program      *messages.ProgramData
	manager      *state.GameStateManager
	roomID       string
	relay        actionsocket.Options
	uploadDevice bool
	runTimeout   time.Duration
}

// run drives one session: load the map, run the program, and record the
// outcome from the simulator's event stream.
func run(ctx context.Context, opts runOptions) error {
	transport, err := channel.DialWS(opts.simulatorURL)
	if err != nil {
		return err
	}

	ch := channel.NewChannel(channel.Config{})
	ch.Initialize(transport)
	defer ch.Disconnect()

	// Buffered past one entry: a run can emit several terminal events and
	// the dispatch goroutine must never block on them.
	done := make(chan gamestate.SessionResult, 4)
	ch.OnMessage(messages.MessageTypeVictory, func(data json.RawMessage) {
		opts.manager.HandleMessage(ctx, &messages.Message{Type: messages.MessageTypeVictory, Data: data})
		done <- gamestate.SessionResultVictory
	})
	ch.OnMessage(messages.MessageTypeProgress, func(data json.RawMessage) {
		opts.manager.HandleMessage(ctx, &messages.Message{Type: messages.MessageTypeProgress, Data: data})
	})
	ch.OnMessage(messages.MessageTypeError, func(data json.RawMessage) {
		opts.manager.HandleMessage(ctx, &messages.Message{Type: messages.MessageTypeError, Data: data})
		done <- gamestate.SessionResultError
	})
	ch.OnMessage(messages.MessageTypeProgramStarted, func(data json.RawMessage) {
		opts.manager.HandleMessage(ctx, &messages.Message{Type: messages.MessageTypeProgramStarted})
	})
	ch.OnMessage(messages.MessageTypeProgramStopped, func(data json.RawMessage) {
		opts.manager.HandleMessage(ctx, &messages.Message{Type: messages.MessageTypeProgramStopped})
		done <- gamestate.SessionResultDefeat
	})

	if err := ch.LoadMap(ctx, opts.mapKey); err != nil {
		return fmt.Errorf("failed to load map: %v", err)
	}
	opts.manager.SetCurrentState(ctx, gamestate.NewGameState(opts.mapKey))

	programJSON, err := json.Marshal(opts.program)
	if err != nil {
		return err
	}
	sessionID := opts.manager.StartSession(ctx, opts.mapKey, programJSON)

	if err := ch.RunProgram(ctx, opts.program); err != nil {
		opts.manager.EndSession(ctx, sessionID, gamestate.SessionResultError, nil)
		return fmt.Errorf("failed to run program: %v", err)
	}

	var result gamestate.SessionResult
	select {
	case result = <-done:
	case <-time.After(opts.runTimeout):
		opts.manager.EndSession(ctx, sessionID, gamestate.SessionResultError, nil)
		return fmt.Errorf("timed out waiting for run to finish")
	}

	var score *float64
	if current := opts.manager.GetCurrentState(); current != nil && result == gamestate.SessionResultVictory {
		s := float64(current.CollectedBatteries)
		score = &s
	}
	opts.manager.EndSession(ctx, sessionID, result, score)
	log.Info("Run finished: %s", result)

	if opts.roomID != "" {
		relayActions(opts.roomID, opts.relay, opts.program)
	}

	if opts.uploadDevice {
		uploadProgram(opts.program)
	}

	return nil
}

// relayActions pushes the flattened action stream to the relay room.
// Best effort: failures are logged, never fatal to the run.
func relayActions(roomID string, opts actionsocket.Options, prog *messages.ProgramData) {
	publisher, err := actionsocket.Dial(roomID, opts)
	if err != nil {
		log.Warn("Skipping relay push: %v", err)
		return
	}
	defer publisher.Close()

	if err := publisher.SendActions(program.Flatten(prog)); err != nil {
		log.Warn("Failed to push actions: %v", err)
	}
}

func uploadProgram(prog *messages.ProgramData) {
	hex, err := device.BuildHex(prog)
	if err != nil {
		log.Warn("Skipping device upload: %v", err)
		return
	}

	microbit := device.NewMicrobitConnection()
	if err := microbit.Connect(); err != nil {
		log.Warn("Failed to connect micro:bit: %v", err)
		return
	}
	defer microbit.Disconnect()

	if err := microbit.UploadCode(hex); err != nil {
		log.Warn("Failed to upload code: %v", err)
	}
}
