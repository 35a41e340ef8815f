package reviewsim

import "time"

// Config holds configuration for a simulated review session.
type Config struct {
	BaseURL   string        // Base URL of the service
	ClipID    string        // Clip the simulated reviewer works on
	Threads   int           // Number of annotation threads to create
	Timeout   time.Duration // HTTP request timeout
	LogFile   string        // Log file for session output
	Verbose   bool          // Enable verbose logging
	FrameW    float64       // Render surface width in px
	FrameH    float64       // Render surface height in px
	DurationS int           // Simulated clip duration in seconds
}

// Stats holds session statistics.
type Stats struct {
	ThreadsCreated  int
	CommentsAdded   int
	ThreadsResolved int
	ThreadsReopened int
	Transitions     int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
