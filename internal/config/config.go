package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Port string

	// Cluster is "local" (in-process bank) or "rpc" (remote node at RPCURL).
	Cluster       string
	RPCURL        string
	SolCommitment string

	// Store is "memory" or "mongo"; it backs local accounts and API keys.
	Store    string
	MongoURI string
	MongoDB  string

	ProgramID       string
	AuthorityKey    string // base58 private key; random when empty
	AirdropLamports uint64

	RateLimitRPM   int
	CacheTTL       time.Duration
	KeyCacheTTL    time.Duration
	RequestTimeout time.Duration
	MaxConcurrency int
	AdminToken     string
	APIKey         string // issued at startup when set
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getuint(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load loads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:            getenv("PORT", "8080"),
		Cluster:         getenv("CLUSTER", "local"),
		RPCURL:          getenv("RPC_URL", "http://127.0.0.1:8899"),
		SolCommitment:   getenv("SOL_COMMITMENT", "confirmed"),
		Store:           getenv("STORE", "memory"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "tokenprog"),
		ProgramID:       getenv("PROGRAM_ID", ""),
		AuthorityKey:    getenv("AUTHORITY_KEY", ""),
		AirdropLamports: getuint("AIRDROP_LAMPORTS", 10_000_000_000),
		RateLimitRPM:    getint("RATE_LIMIT_RPM", 60),
		CacheTTL:        getdur("CACHE_TTL", 5*time.Second),
		KeyCacheTTL:     getdur("KEY_CACHE_TTL", 60*time.Second),
		RequestTimeout:  getdur("REQUEST_TIMEOUT", 5*time.Second),
		MaxConcurrency:  getint("MAX_CONCURRENCY", 16),
		AdminToken:      getenv("ADMIN_TOKEN", ""),
		APIKey:          getenv("API_KEY", ""),
	}
}
