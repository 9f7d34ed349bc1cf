package constants

import "time"

// Service constants
const (
	// ServiceName names the service in traces and logs when config leaves it empty
	ServiceName = "cogex"

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 5 * time.Second

	// HealthCheckTimeout bounds the Neo4j ping behind /health
	HealthCheckTimeout = 2 * time.Second
)

// Upload constants
const (
	// MaxUploadMemory is the part of a multipart upload held in memory
	MaxUploadMemory = 32 << 20
)
