package config

import (
	"strings"
	"time"
)

// AnalyticsConfig holds runtime configuration for the analytics service.
// Every upstream source is independently optional; an empty address or path
// disables that source without error.
type AnalyticsConfig struct {
	Environment string
	Addr        string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	SchemaRegistryURL      string
	SchemaRegistryUser     string
	SchemaRegistryPassword string

	StreamURL          string
	StreamPollInterval time.Duration

	ReplayFilePath string

	WindowSeconds      int
	MaxEventsPerMetric int
	SnapshotTTL        time.Duration

	CacheRedisAddr     string
	CacheRedisPassword string
	CacheRedisDB       int

	CatalogFilePath    string
	CatalogDatabaseURL string
}

// LoadAnalyticsConfig constructs an AnalyticsConfig from environment variables.
func LoadAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		Environment: GetString("APP_ENV", "development"),
		Addr:        GetString("ANALYTICS_ADDR", ":4600"),

		KafkaBrokers: splitList(GetString("KAFKA_BROKERS", "")),
		KafkaTopic:   GetString("KAFKA_TOPIC", "ecosystem.metrics"),
		KafkaGroupID: GetString("KAFKA_GROUP_ID", "verdant-analytics"),

		SchemaRegistryURL:      GetString("SCHEMA_REGISTRY_URL", ""),
		SchemaRegistryUser:     GetString("SCHEMA_REGISTRY_USER", ""),
		SchemaRegistryPassword: GetString("SCHEMA_REGISTRY_PASSWORD", ""),

		StreamURL:          GetString("STREAM_URL", ""),
		StreamPollInterval: time.Duration(GetInt("STREAM_POLL_SECONDS", 15)) * time.Second,

		ReplayFilePath: GetString("REPLAY_FILE", ""),

		WindowSeconds:      GetInt("WINDOW_SECONDS", 110),
		MaxEventsPerMetric: GetInt("MAX_EVENTS_PER_METRIC", 180),
		SnapshotTTL:        time.Duration(GetInt("SNAPSHOT_TTL_MS", 4000)) * time.Millisecond,

		CacheRedisAddr:     GetString("CACHE_REDIS_ADDR", ""),
		CacheRedisPassword: GetString("CACHE_REDIS_PASSWORD", ""),
		CacheRedisDB:       GetInt("CACHE_REDIS_DB", 0),

		CatalogFilePath:    GetString("CATALOG_FILE", ""),
		CatalogDatabaseURL: GetString("CATALOG_DATABASE_URL", ""),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
