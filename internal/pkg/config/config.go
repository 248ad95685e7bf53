package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond retrieves the value for the given key as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value for the given key as a duration in minutes.
	GetMinute(key string) time.Duration

	// GetHour retrieves the value for the given key as a duration in hours.
	GetHour(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of
// various types. Implementations handle retrieval and type conversion of
// configuration data, returning zero values when a key is absent.
type Config interface {
	io.Closer
	TimeConfig

	// GetBool retrieves the value for the given key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value for the given key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value for the given key as an int32.
	GetInt32(key string) int32

	// GetInt64 retrieves the value for the given key as an int64.
	GetInt64(key string) int64

	// GetUint16 retrieves the value for the given key as a uint16.
	GetUint16(key string) uint16

	// GetFloat64 retrieves the value for the given key as a float64.
	GetFloat64(key string) float64

	// GetString retrieves the value for the given key as a string.
	GetString(key string) string

	// GetArray retrieves the value for the given key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	GetArray(key string) []string
}
