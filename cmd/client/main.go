package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/metahead-arena/headball/pkg/auth"
	"github.com/metahead-arena/headball/pkg/events"
	"github.com/metahead-arena/headball/pkg/game"
	"github.com/metahead-arena/headball/pkg/game/constants"
	gametypes "github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/metahead-arena/headball/pkg/network"
	"github.com/metahead-arena/headball/pkg/queue"
	"github.com/metahead-arena/headball/pkg/room"
	"github.com/metahead-arena/headball/pkg/state"
	"github.com/metahead-arena/headball/pkg/telemetry"
	"github.com/metahead-arena/headball/pkg/version"
)

func main() {
	serverURL := flag.String("server-url", "ws://localhost:8080/ws", "Game server websocket URL")
	authURL := flag.String("auth-url", "http://localhost:8080", "Auth server URL")
	email := flag.String("email", "", "Login email")
	password := flag.String("password", "", "Login password")
	token := flag.String("token", "", "Static auth token, skips the login flow")
	roomCode := flag.String("room-code", "", "Join a private room by code instead of matchmaking")
	createRoom := flag.Bool("create-room", false, "Create a private room instead of matchmaking")
	singlePlayer := flag.Bool("single-player", false, "Run an offline practice session")
	debugAddr := flag.String("debug-addr", "", "Address for the local telemetry server, e.g. 127.0.0.1:9090")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)
	log.Info("Starting client version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	messageQueue := queue.NewInMemoryQueue(1024)

	var tokenProvider auth.TokenProvider
	if *token != "" {
		tokenProvider = auth.NewStaticTokenProvider(*token)
	} else {
		tokenProvider = auth.NewHTTPTokenProvider(auth.NewHTTPTokenProviderOptions{
			AuthURL:  *authURL,
			Email:    *email,
			Password: *password,
		})
	}

	networkManager := network.NewManager(network.NewManagerOptions{
		ServerURL:     *serverURL,
		TokenProvider: tokenProvider,
		MessageQueue:  messageQueue,
		EventBus:      bus,
	})

	stateManager := state.NewInMemoryStateManager()
	engine := game.NewEngine(game.NewEngineOptions{
		Conn:         networkManager,
		MessageQueue: messageQueue,
		StateManager: stateManager,
	})

	var roomManager *room.Manager
	roomManager = room.NewManager(room.NewManagerOptions{
		Conn:       networkManager,
		EventBus:   bus,
		LocalID:    networkManager.LocalID,
		GraceDelay: constants.RematchGraceDelay,
		OnGameStarted: func(role gametypes.Role, matchDuration time.Duration) {
			localID := networkManager.LocalID()
			remoteID := ""
			if snapshot := roomManager.Snapshot(); snapshot != nil {
				for _, p := range snapshot.Players {
					if p.ID != localID {
						remoteID = p.ID
					}
				}
			}
			if err := engine.Activate(game.ActivateOptions{
				Role:          role,
				LocalID:       localID,
				RemoteID:      remoteID,
				MatchDuration: matchDuration,
			}); err != nil {
				log.Error("Failed to activate match: %v", err)
			}
		},
		OnMatchEnded: func(final *messages.ServerMatchEnded) {
			engine.EndMatch(final)
			log.Info("Match ended %d - %d, winner: %s",
				final.FinalScore.Player1, final.FinalScore.Player2, final.Winner)
		},
		OnRoomReset: engine.Deactivate,
		OnPhaseChange: func(phase room.Phase) {
			log.Info("Room phase: %s", phase)
			if phase == room.PhaseRoomFull {
				if err := roomManager.SetReady(); err != nil {
					log.Error("Failed to ready up: %v", err)
				}
			}
		},
	})
	defer roomManager.Close()

	if *debugAddr != "" {
		telemetryServer := telemetry.NewServer(telemetry.NewServerOptions{
			Addr:           *debugAddr,
			ConnectionInfo: networkManager.Health,
			StateManager:   stateManager,
		})
		go telemetryServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryServer.Stop(shutdownCtx); err != nil {
				log.Error("Failed to stop telemetry server: %v", err)
			}
		}()
	}

	go func() {
		if err := engine.Start(ctx); err != nil {
			log.Error("Simulation loop error: %v", err)
		}
	}()

	if *singlePlayer {
		log.Info("Starting offline practice session")
		if err := engine.Activate(game.ActivateOptions{
			Role:         gametypes.RolePlayer1,
			LocalID:      "local",
			SinglePlayer: true,
		}); err != nil {
			panic(fmt.Sprintf("Failed to start practice session: %v", err))
		}
		<-ctx.Done()
		return
	}

	if err := networkManager.Connect(ctx); err != nil {
		panic(fmt.Sprintf("Failed to connect: %v", err))
	}
	defer networkManager.Disconnect()
	log.Info("Connected as %s", networkManager.LocalID())

	switch {
	case *roomCode != "":
		err = roomManager.JoinRoomByCode(*roomCode)
	case *createRoom:
		err = roomManager.CreateRoom()
	default:
		err = roomManager.FindMatch()
	}
	if err != nil {
		panic(fmt.Sprintf("Failed to enter matchmaking: %v", err))
	}

	<-ctx.Done()
	log.Info("Shutting down")
}
