package reviewsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/frameproof/frameproof/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "review_session_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the review simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Frameproof Review Simulator
===========================

Drives a scripted review session against a running frameproof service.

Usage:
  go run cmd/reviewsim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -clip string
        Clip id to review (default "sim-clip")
  -threads int
        Number of annotation threads to create (default 20)
  -duration int
        Simulated clip duration in seconds (default 120)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for session output (default: review_session_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/reviewsim/main.go

  # Heavier session against a remote instance
  go run cmd/reviewsim/main.go -threads 200 -url http://staging:9080
`)
}
