package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Euphemus333/arabot/internal/bot"
	"github.com/Euphemus333/arabot/internal/config"
	"github.com/Euphemus333/arabot/internal/gateway/discord"
	"github.com/Euphemus333/arabot/internal/handler"
	"github.com/Euphemus333/arabot/internal/logger"
	"github.com/Euphemus333/arabot/internal/service"
	"github.com/Euphemus333/arabot/internal/storage"
	"github.com/Euphemus333/arabot/internal/workflow"
)

func main() {
	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// Initialize database
	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Moderation store (migrates its tables)
	store, err := service.NewModerationStore(storage.GetDB())
	if err != nil {
		log.Fatalf("Failed to initialize moderation store: %v", err)
	}

	// Open the Discord session
	botService, err := bot.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	// The Discord gateway serves as both the directory and the notifier
	guildGateway := discord.NewGateway(botService.Session, cfg.Bot.GuildID)

	engine := workflow.NewEngine(store, guildGateway, guildGateway, cfg.Identifiers)

	handler.RegisterCommands(botService.Session, engine)

	if err := botService.RegisterCommands(cfg); err != nil {
		log.Fatalf("Failed to register commands: %v", err)
	}

	log.Println("Bot is running, press Ctrl+C to exit")

	// Create a channel for receiving OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for signal
	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down...", sig)

	if err := botService.Stop(); err != nil {
		log.Printf("Error closing session: %v", err)
	}

	log.Println("Bot gracefully stopped")
}
