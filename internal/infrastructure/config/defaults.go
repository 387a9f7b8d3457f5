package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultWorkerPoll      = time.Second
	DefaultWorkerBatch     = 10
	DefaultRequestTimeout  = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultPGPingTimeout   = 15 * time.Second
	UserAgent              = "avquotes-service/1.0"
)
