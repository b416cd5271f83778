package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solidchat-backend/internal/api"
	"solidchat-backend/internal/auth"
	"solidchat-backend/internal/config"
	"solidchat-backend/internal/handlers"
	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/panes"
	"solidchat-backend/internal/pod"
	"solidchat-backend/internal/services"
	"solidchat-backend/internal/store/pebbledb"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	// 2. Resolve Identity
	webID := auth.ResolveWebID(cfg.WebID, cfg.PodBearerToken)
	if webID == "" {
		logger.L.Warn("no signed-in identity; chats are read-only until WEB_ID or POD_BEARER_TOKEN is set")
	} else {
		logger.L.Info("resolved identity", "webid", webID)
	}

	// 3. Open Chat List Store
	chatStore, err := pebbledb.Open(cfg.ChatListDBPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to open chat list store: %v", err)
	}
	defer chatStore.Close()

	// 4. Initialize Pod Client and Live Updates
	podClient := pod.NewClient(&http.Client{Timeout: cfg.PodTimeout}, cfg.PodBearerToken)
	var chatPane *panes.ChatPane
	notifier := pod.NewNotifier(podClient, func(docURI string) {
		if chatPane != nil {
			chatPane.HandleUpdate(docURI)
		}
	})
	defer notifier.Close()

	// 5. Initialize Services
	historySvc := services.NewHistoryService(podClient)
	messageSvc := services.NewMessageService(podClient, historySvc)
	avatarSvc := services.NewAvatarService(podClient)
	chatListSvc := services.NewChatListService(chatStore, podClient, cfg.DefaultChatURI)

	// 6. Initialize Panes
	chatPane = panes.NewChatPane(podClient, historySvc, messageSvc, avatarSvc, notifier, webID)
	chatListPane := panes.NewChatListPane(chatListSvc, historySvc)
	registry := panes.NewRegistry(chatListPane, chatPane)

	// 7. Initialize Handlers and Router
	chatHandler := handlers.NewChatHandler(registry, chatListSvc)
	chatListHandler := handlers.NewChatListHandler(chatListPane, chatListSvc)
	router := api.NewRouter(chatHandler, chatListHandler, webID)

	// 8. Start HTTP Server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.L.Info("server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.L.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("forced shutdown", "error", err)
	}
}
