// Package config loads application configuration from ROLEVAULT_*
// environment variables with sensible defaults and validates it before
// anything opens a file.
package config
