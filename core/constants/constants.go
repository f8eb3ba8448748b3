package constants

import "time"

// Context keys
const (
	ContextTokenData = "token_data"
)

// Database pool settings
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// Timeouts
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultTimeout        = 10 * time.Second
)

// Token scopes
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Login throttling
const (
	MaxLoginAttempts = 5
	BlockDuration    = 15 * time.Minute
)

// Redis key prefixes
const (
	RedisKeyTokenBlacklist = "token:blacklist:"
	RedisKeyLoginAttempt   = "login:attempt:"
)

// Asynq task types
const (
	TaskNotificationDeliver = "notification:deliver"
	TaskSwapExpire          = "swap:expire"
)
