package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/button"
	"github.com/azckamp/lanetimer/internal/core"
	"github.com/azckamp/lanetimer/internal/diag"
	"github.com/azckamp/lanetimer/internal/display"
	"github.com/azckamp/lanetimer/internal/history"
	"github.com/azckamp/lanetimer/internal/role"
	"github.com/azckamp/lanetimer/internal/session"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("LANETIMER_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	deviceRole, err := role.Parse(cfg.Client.Role)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid role")
	}

	log.Info().
		Str("server", cfg.serverURL()).
		Str("role", string(deviceRole)).
		Int("lane", cfg.Client.Lane).
		Msg("starting lanetimer")

	clock := clockwork.NewRealClock()
	sess := session.New(session.DefaultConfig(cfg.serverURL()), clock)
	buttons := button.NewQueue(clock)

	var archive core.RunArchiver
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path, clock)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open run history")
		}
		defer store.Close()
		archive = store
	}

	engine := core.New(
		core.Config{Lane: cfg.Client.Lane, Role: deviceRole},
		clock,
		sess,
		sess.Events(),
		buttons.Events(),
		display.NewConsole(),
		archive,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sess.Run(ctx)

	if cfg.Diag.Addr != "" {
		go func() {
			if err := diag.NewServer(cfg.Diag.Addr, engine).Run(ctx); err != nil {
				log.Error().Err(err).Msg("diagnostics server stopped")
			}
		}()
	}

	// Stand-in for the hardware button: every line on stdin is one press.
	go readPresses(ctx, buttons)

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("engine stopped")
	}
	log.Info().Msg("shut down")
}

func readPresses(ctx context.Context, buttons *button.Queue) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		buttons.Press()
	}
}
