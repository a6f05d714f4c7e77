package main

import (
	"os"
	"strconv"
)

// Config holds the process configuration, sourced from environment
// variables (a local .env is loaded when present).
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	NATSURL     string

	RoundSeconds       int
	AntiSnipeEnabled   bool
	AntiSnipeWindowSec int
	AntiSnipeFloorSec  int
}

func loadConfig() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		NATSURL:     os.Getenv("NATS_URL"),

		RoundSeconds:       getEnvAsInt("ROUND_SECONDS", 60),
		AntiSnipeEnabled:   getEnvAsBool("ANTI_SNIPE_ENABLED", false),
		AntiSnipeWindowSec: getEnvAsInt("ANTI_SNIPE_WINDOW_SEC", 10),
		AntiSnipeFloorSec:  getEnvAsInt("ANTI_SNIPE_FLOOR_SEC", 15),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
