package handlers

import "time"

const (
	// Request deadlines
	analysisTimeout    = 30 * time.Second
	arrangementTimeout = 120 * time.Second

	// Listing limits
	defaultRecentRuns = 20
)
