package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvOrDefault returns the value of an environment variable or a fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseInteger parses an integer environment value with a fallback.
func ParseInteger(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// ParseBoolean parses a boolean environment value with a fallback.
func ParseBoolean(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return defaultValue
	}
	return b
}

// ParseArray parses a comma-separated environment value into a slice.
func ParseArray(value string) []string {
	if value == "" {
		return nil
	}
	return SplitAndTrim(value, ",")
}
