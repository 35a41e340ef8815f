package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/frameproof/frameproof/internal/reviewsim"
)

// Default configuration constants.
const (
	defaultThreads        = 20
	defaultDurationS      = 120
	defaultTimeout        = 30 * time.Second
	defaultSessionTimeout = 10 * time.Minute
	defaultFrameW         = 1920
	defaultFrameH         = 1080
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		clipID    = flag.String("clip", "sim-clip", "Clip id to review")
		threads   = flag.Int("threads", defaultThreads, "Number of annotation threads to create")
		durationS = flag.Int("duration", defaultDurationS, "Simulated clip duration in seconds")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for session output (default: review_session_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		reviewsim.ShowHelp()
		return
	}

	if err := reviewsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSessionTimeout)
	defer cancel()

	config := &reviewsim.Config{
		BaseURL:   *baseURL,
		ClipID:    *clipID,
		Threads:   *threads,
		Timeout:   *timeout,
		LogFile:   *logFile,
		Verbose:   *verbose,
		FrameW:    defaultFrameW,
		FrameH:    defaultFrameH,
		DurationS: *durationS,
	}

	if err := reviewsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Review session failed: " + err.Error() + "\n")
		return
	}
}
