package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talkify/auth"
	"talkify/handlers"
	"talkify/internal"
	"talkify/moderation"
	"talkify/repositories"
	"talkify/runtime"
	"talkify/search"
	"talkify/services"
	"talkify/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern keeps every defer (database close, index flush) on the path of
// a graceful shutdown, which os.Exit in main would skip.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort != 0 {
		endpoint := "/inspect"
		logger.Info("Debug store inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(db, config.DebugPort, endpoint, internal.DefaultMapper, internal.ProcessStats())
	}

	// 3. Full-text index (optional)
	var index search.IMessageIndex
	if config.BlugeFilepath != "" {
		messageIndex, err := search.OpenMessageIndex(config.BlugeFilepath, logger)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to open message index: %w", err)
		}
		defer func() {
			logger.Info("Closing message index...")
			_ = messageIndex.Close()
		}()
		index = messageIndex
	} else {
		logger.Info("BLUGE_FILEPATH not set, search is disabled")
	}

	// 4. Moderation
	words, err := moderation.LoadWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to load censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(words.Words, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to build moderator: %w", err)
	}
	logger.Info("Moderation ready",
		"words", len(words.Words), "languages", words.Languages)

	// 5. Repositories, broker and services
	userRepository := repositories.NewUserRepository(db)
	roomRepository := repositories.NewRoomRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)

	broker := runtime.NewBroker(logger)
	chatService := services.NewChatService(
		userRepository, roomRepository, messageRepository, index, &moderator, broker, logger)
	presenceService := services.NewPresenceService(userRepository, chatService, logger)
	statusService := services.NewStatusService(roomRepository, messageRepository, broker, logger)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration, logger)
	handshake := auth.NewHandshake(userRepository, config.AuthRequired, logger)

	// 6. HTTP surface: websocket endpoint + REST API
	router := mux.NewRouter()
	router.Handle("/ws", ws.NewHandler(
		handshake, broker, chatService, presenceService, statusService, config.SendBufferSize, logger))
	handlers.NewAPI(authService, chatService, index, handshake, logger).Routes(router)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// Active websocket sessions are cut when the listener closes; pending
	// REST requests get a grace period to finish.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
