package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr        string
	GelfAddr        string
	JWTSecret       string
	MaxRequestBytes int64
	Workers         int

	// Render engine
	RenderURL     string
	RenderAPIKey  string
	RenderTimeout time.Duration

	// Local staging
	StagingDir string

	// Cloud object storage destination
	GCSBucket          string
	GCSCredentialsFile string
	GCSContinueOnFail  bool

	// File-sharing destination
	FileshareURL            string
	FileshareToken          string
	FileshareBasePath       string
	FileshareContinueOnFail bool

	// Optional Firestore-backed job registry
	FirestoreProject    string
	FirestoreCollection string
}

func Load() *Config {
	return &Config{
		HTTPAddr:        getEnv("DOCFORGE_ADDR", ":8080"),
		GelfAddr:        getEnv("DOCFORGE_GELF_ADDR", ""),
		JWTSecret:       getEnv("DOCFORGE_JWT_SECRET", ""),
		MaxRequestBytes: int64(getEnvInt("DOCFORGE_MAX_REQUEST_BYTES", 2<<20)),
		Workers:         getEnvInt("DOCFORGE_WORKERS", 4),

		RenderURL:     getEnv("RENDER_ENGINE_URL", "http://127.0.0.1:9090/render"),
		RenderAPIKey:  getEnv("RENDER_ENGINE_API_KEY", ""),
		RenderTimeout: getEnvDuration("RENDER_TIMEOUT", 3*time.Minute),

		StagingDir: getEnv("DOCFORGE_STAGING_DIR", "/var/tmp/docforge"),

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		GCSContinueOnFail:  getEnvBool("GCS_CONTINUE_ON_FAILURE", false),

		FileshareURL:            getEnv("FILESHARE_URL", ""),
		FileshareToken:          getEnv("FILESHARE_TOKEN", ""),
		FileshareBasePath:       getEnv("FILESHARE_BASE_PATH", "/intake-documents"),
		FileshareContinueOnFail: getEnvBool("FILESHARE_CONTINUE_ON_FAILURE", true),

		FirestoreProject:    getEnv("JOBS_FIRESTORE_PROJECT", ""),
		FirestoreCollection: getEnv("JOBS_FIRESTORE_COLLECTION", "docforge_jobs"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
