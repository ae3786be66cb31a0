package consts

import "time"

// File operation limits
const (
	// MaxFileReadSize is the largest file the read_file tool will return (5 MB)
	MaxFileReadSize = 5 * 1024 * 1024
)

// Search tool bounds
const (
	// MaxSearchDepth limits how deep search_files recurses into subdirectories
	MaxSearchDepth = 5
	// MaxSearchResults caps the number of matches search_files collects
	MaxSearchResults = 100
)

// Agent loop limits
const (
	// MaxToolRounds is the ceiling on request/response rounds in one ask
	MaxToolRounds = 10
)

// Buffer sizes for stream decoding
const (
	// BufferSize256KB is 256 kilobytes
	BufferSize256KB = 256 * 1024
)

// Timeouts for various operations
const (
	// Timeout10Seconds is a 10 second timeout
	Timeout10Seconds = 10 * time.Second
	// Timeout30Seconds is a 30 second timeout
	Timeout30Seconds = 30 * time.Second
	// Timeout2Minutes is a 2 minute timeout
	Timeout2Minutes = 2 * time.Minute
)

// Sampling windows
const (
	// CPUSampleWindow is how long get_system_info waits between CPU samples
	CPUSampleWindow = 100 * time.Millisecond
)
