// Package config provides environment-based configuration.
//
// Loads from process environment (main loads a .env file first via
// godotenv), validates required fields, and applies defaults.
package config
