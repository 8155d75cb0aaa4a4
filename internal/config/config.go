// Package config loads the runtime settings shared by the command line tool,
// the HTTP service and the Pub/Sub worker.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for settings whose environment variable is unset.
const (
	// DefaultHTTPAddr is where "huffman serve" listens.
	DefaultHTTPAddr = ":8081"

	// DefaultMaxUploadSize caps the request body accepted by the HTTP
	// service, in bytes.
	DefaultMaxUploadSize = 1 << 30

	// DefaultMaxOutputSize caps the decompressed size the HTTP service will
	// produce for one request, in bytes.
	DefaultMaxOutputSize = 1 << 30

	// DefaultGCSTimeout bounds each Cloud Storage transfer.
	DefaultGCSTimeout = 50 * time.Second
)

// Config holds the settings read from the environment by Load.
type Config struct {
	// DevelopmentMode enables debug logging.
	DevelopmentMode bool

	ProjectID     string
	SubID         string
	ResultTopicID string

	HTTPAddr      string
	MaxUploadSize int64
	MaxOutputSize int64
	GCSTimeout    time.Duration
}

// Load reads the configuration from the environment.  Unset variables take
// their defaults; set but unparsable ones are an error.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		ProjectID:     getenv("GCP_PROJECT_ID"),
		SubID:         getenv("PUBSUB_SUB_ID"),
		ResultTopicID: getenv("PUBSUB_RESULT_TOPIC_ID"),
		HTTPAddr:      DefaultHTTPAddr,
		MaxUploadSize: DefaultMaxUploadSize,
		MaxOutputSize: DefaultMaxOutputSize,
		GCSTimeout:    DefaultGCSTimeout,
	}

	// Anything that is not a valid boolean leaves debug logging off.
	if isDev, err := strconv.ParseBool(getenv("DEVELOPMENT_MODE")); err == nil {
		cfg.DevelopmentMode = isDev
	}

	if addr := getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	if str := getenv("MAX_UPLOAD_SIZE"); str != "" {
		size, err := strconv.ParseInt(str, 10, 64)
		if err != nil || size <= 0 {
			return cfg, fmt.Errorf("invalid MAX_UPLOAD_SIZE %q", str)
		}
		cfg.MaxUploadSize = size
	}

	if str := getenv("MAX_OUTPUT_SIZE"); str != "" {
		size, err := strconv.ParseInt(str, 10, 64)
		if err != nil || size <= 0 {
			return cfg, fmt.Errorf("invalid MAX_OUTPUT_SIZE %q", str)
		}
		cfg.MaxOutputSize = size
	}

	if str := getenv("GCS_TIMEOUT"); str != "" {
		timeout, err := time.ParseDuration(str)
		if err != nil || timeout <= 0 {
			return cfg, fmt.Errorf("invalid GCS_TIMEOUT %q", str)
		}
		cfg.GCSTimeout = timeout
	}

	return cfg, nil
}

// RequireWorker checks the settings the Pub/Sub worker cannot run without.
func (cfg Config) RequireWorker() error {
	if cfg.ProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is not set")
	}
	if cfg.SubID == "" {
		return fmt.Errorf("PUBSUB_SUB_ID is not set")
	}
	return nil
}
