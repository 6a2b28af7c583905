// Package config loads typed configuration structs from environment
// variables using caarlos0/env tags, with an optional .env file loaded once
// per process via godotenv. Parsed configurations are cached per type so
// repeated Load calls are cheap and consistent.
package config
