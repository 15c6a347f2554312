package config

import (
	"os"
	"strconv"
)

type Config struct {
	StreamPort              string
	MusicDir                string
	StationName             string
	MaxConsumers            int
	RingBufferBytes         int
	QueueStoreFile          string
	Lookahead               int
	PreloadThresholdSeconds int
	PreloadTargetSeconds    int
	OperatorUsername        string
	OperatorPasswordHash    string
	JWTSecret               string
}

func Load() *Config {
	return &Config{
		StreamPort:              getEnv("STREAM_PORT", "8000"),
		MusicDir:                getEnv("MUSIC_DIR", "./music"),
		StationName:             getEnv("STATION_NAME", "wavecast"),
		MaxConsumers:            getEnvAsInt("MAX_CONSUMERS", 100),
		RingBufferBytes:         getEnvAsInt("RING_BUFFER_BYTES", 4*StreamChunkBytes),
		QueueStoreFile:          getEnv("QUEUE_STORE_FILE", "./data/queue.json"),
		Lookahead:               getEnvAsInt("LOOKAHEAD", 3),
		PreloadThresholdSeconds: getEnvAsInt("PRELOAD_THRESHOLD_SECONDS", 10),
		PreloadTargetSeconds:    getEnvAsInt("PRELOAD_TARGET_SECONDS", 30),
		OperatorUsername:        getEnv("OPERATOR_USERNAME", "operator"),
		OperatorPasswordHash:    getEnv("OPERATOR_PASSWORD_HASH", ""),
		JWTSecret:               getEnv("JWT_SECRET", "change-me-in-production-please"),
	}
}

// StreamChunkBytes is one Playback Driver tick's worth of PCM bytes
// (StreamChunkSize samples * 4 bytes per f32 sample), duplicated from
// internal/driver to avoid this package depending on the audio pipeline.
const StreamChunkBytes = 8820 * 4

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}
