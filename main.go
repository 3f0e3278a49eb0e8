// Package main provides the entry point for the VitalStore server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalstore/internal/app"
	"vitalstore/internal/commands"
	"vitalstore/internal/container"
	"vitalstore/internal/types"
	"vitalstore/internal/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		runCommand()
	} else {
		runServer()
	}
}

// runCommand dispatches to the appropriate command handler
func runCommand() {
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "ingest":
		commands.RunIngest(args)
	case "impute":
		commands.RunImpute(args)
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Run 'vitalstore help' for usage.")
		os.Exit(1)
	}
}

// printHelp displays the general help information
func printHelp() {
	fmt.Println("VitalStore - Multi-resolution biometric time-series store.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  vitalstore                    Start the query API server")
	fmt.Println("  vitalstore <command> [args]   Execute a command")
	fmt.Println()
	fmt.Println("Available Commands:")
	fmt.Println("  ingest    Run one batch ingestion cycle")
	fmt.Println("  impute    Run one gap-fill imputation pass")
	fmt.Println("  help      Display this help message")
}

// runServer run App Server
func runServer() {
	container, err := container.BuildContainer()
	if err != nil {
		logrus.Fatalf("Failed to build container: %v", err)
	}

	// Initialize global logger
	if err := container.Invoke(func(configManager types.ConfigManager) {
		utils.SetupLogger(configManager)
	}); err != nil {
		logrus.Fatalf("Failed to setup logger: %v", err)
	}

	// Create and run the application
	if err := container.Invoke(func(application *app.App, configManager types.ConfigManager) {
		if err := application.Start(); err != nil {
			logrus.Fatalf("Failed to start application: %v", err)
		}

		// Use buffered channel to avoid missing signals
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		sig := <-quit
		logrus.Infof("Received signal: %v, initiating graceful shutdown...", sig)

		serverConfig := configManager.GetServerConfig()
		shutdownTimeout := time.Duration(serverConfig.GracefulShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			application.Stop(shutdownCtx)
			close(done)
		}()

		select {
		case <-done:
		case <-quit:
			logrus.Warn("Received second signal, forcing exit")
		}
	}); err != nil {
		logrus.Fatalf("Failed to run application: %v", err)
	}
}
