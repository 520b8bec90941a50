package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/tableside/cmd/utils/internal/commands"
)

const (
	appName    = "tableside-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := os.Args[1]

	switch command {
	case "check-api":
		if err := commands.CheckAPI(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("POS API check failed: %v", err)
		}

	case "floor":
		if err := commands.Floor(ctx, config, logger, os.Stdout, time.Now()); err != nil {
			log.Fatalf("Cannot show floor: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - tableside operator commands

Usage:
  %s <command> [options]

Commands:
  check-api    Ping the POS API and count the collections the waiter service reads
  floor        Print the floor board: table status, open orders, elapsed time, urgency
  version      Print version information
  help         Show this help message

Environment Variables:
  UTILS_API_URL           POS API base URL (required)
  UTILS_API_TOKEN         Bearer token sent to the POS API
  UTILS_URGENCY_WARNING   Warning tier, e.g. 60m (default: 60m)
  UTILS_URGENCY_DANGER    Danger tier, e.g. 120m (default: 120m)
  UTILS_LOG_LEVEL         Log level: debug, info, warn, error (default: info)

Examples:
  UTILS_API_URL=http://localhost:8000/api %s check-api
  UTILS_API_URL=http://localhost:8000/api %s floor

`, appName, appName, appName, appName)
}
