package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nkalandia/chatlink/internal/cli"
	"github.com/nkalandia/chatlink/internal/config"
	"github.com/nkalandia/chatlink/internal/domain"
	"github.com/nkalandia/chatlink/internal/logger"
	"github.com/nkalandia/chatlink/internal/repository"
	"github.com/nkalandia/chatlink/internal/service"
	"github.com/nkalandia/chatlink/internal/session"
	"github.com/nkalandia/chatlink/internal/store"
	"github.com/nkalandia/chatlink/internal/transport/rest"
	"github.com/nkalandia/chatlink/internal/transport/socket"
)

func main() {
	cfg := config.Load()

	// Keep stdout clean for the CLI; interactive mode logs warnings only.
	if cli.Mode(cfg.Mode) == cli.ModeInteractive && cfg.LogLevel == "info" {
		logger.Init("warn")
	} else {
		logger.Init(cfg.LogLevel)
	}
	log := logger.Module("main")

	db, err := initDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	// Identity context and its persisted slot
	identity := session.NewHolder()
	sessions := repository.NewSessionStore(db)

	// Remote channel adapter: websocket + REST halves
	channel := socket.NewClient(cfg.SocketURL, logger.Module("socket"))
	api := rest.NewClient(cfg.ServerURL, identity.Token)

	// Synchronization core
	eventBus := domain.NewEventBus()
	chatState := store.NewChat()
	chatSvc := service.NewChatService(
		identity,
		sessions,
		channel,
		api,
		chatState,
		eventBus,
		service.ChatServiceConfig{},
		logger.Module("chat"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resume a persisted session, if any
	if resumed, err := chatSvc.Resume(ctx); err != nil {
		log.Warn().Err(err).Msg("session resume failed")
	} else if resumed {
		log.Info().Str("user", chatSvc.Username()).Msg("session resumed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	handler := cli.NewCommandHandler(chatSvc)

	var runErr error
	switch cli.Mode(cfg.Mode) {
	case cli.ModeHeadless:
		runErr = cli.NewHeadlessCLI(handler).Run(ctx)
	default:
		runErr = cli.NewInteractiveCLI(handler).Run(ctx)
	}
	if runErr != nil && runErr != context.Canceled {
		log.Error().Err(runErr).Msg("CLI error")
	}

	chatSvc.Disconnect()
}

func initDatabase(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&repository.SessionSlotModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
