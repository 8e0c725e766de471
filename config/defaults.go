package config

// Default values, named and sized exactly as spec.md §6 specifies them.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 0

	// DefaultMaxListens and DefaultMaxRecvSize are both 2^20 (for
	// MaxRecvSize, 1 MiB).
	DefaultMaxListens  = 1 << 20
	DefaultMaxRecvSize = 1 << 20

	DefaultLoggingLevel = 1

	DefaultDifficulty           = 4
	DefaultBlockMinTransactions = 2
	DefaultReward               = 50
)
