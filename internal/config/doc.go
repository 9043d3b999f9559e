// Package config handles environment-based application configuration.
// Loads from a .env file (godotenv) when present, maps to the Config
// struct via go-simpler/env struct tags and validates required values.
package config
