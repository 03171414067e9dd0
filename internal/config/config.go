// Package config loads server settings from the environment, with an optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string // empty allows any origin
}

func DefaultServer() ServerConfig {
	return ServerConfig{Port: 8080}
}

func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS")
	return cfg
}

type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

func DefaultLogging() LoggingConfig {
	return LoggingConfig{Level: "info", Format: "console"}
}

func LoggingFromEnv() LoggingConfig {
	cfg := DefaultLogging()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	return cfg
}

// StoreConfig selects the map and match store. An empty DatabaseURL keeps everything
// in memory.
type StoreConfig struct {
	DatabaseURL string
	MapsDir     string
}

func StoreFromEnv() StoreConfig {
	return StoreConfig{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		MapsDir:     os.Getenv("MAPS_DIR"),
	}
}

// RoomConfig holds room registry limits.
type RoomConfig struct {
	MaxRooms   int // keyspace ceiling for room codes
	CodeLength int
}

func DefaultRooms() RoomConfig {
	return RoomConfig{MaxRooms: 10000, CodeLength: 4}
}

func RoomsFromEnv() RoomConfig {
	cfg := DefaultRooms()
	if v := getEnvInt("ROOM_CODE_LENGTH", 0); v > 0 {
		cfg.CodeLength = v
	}
	if v := getEnvInt("MAX_ROOMS", 0); v > 0 {
		cfg.MaxRooms = v
	}
	if limit := keyspace(cfg.CodeLength); cfg.MaxRooms > limit {
		cfg.MaxRooms = limit
	}
	return cfg
}

func keyspace(digits int) int {
	n := 1
	for i := 0; i < digits && n < 1_000_000_000; i++ {
		n *= 10
	}
	return n
}

// TimingConfig holds the game pacing.
type TimingConfig struct {
	TurnDuration               time.Duration
	CombatTurnDuration         time.Duration
	CombatTurnDurationNoEscape time.Duration
	BotMoveDelay               time.Duration
	BotAttackDelay             time.Duration
	TurnTransitionDelay        time.Duration // pause before a bot starts its turn
	RoomIdleTimeout            time.Duration // a room nobody is in closes after this
}

func DefaultTiming() TimingConfig {
	return TimingConfig{
		TurnDuration:               30 * time.Second,
		CombatTurnDuration:         5 * time.Second,
		CombatTurnDurationNoEscape: 3 * time.Second,
		BotMoveDelay:               time.Second,
		BotAttackDelay:             1500 * time.Millisecond,
		TurnTransitionDelay:        3 * time.Second,
		RoomIdleTimeout:            5 * time.Minute,
	}
}

func TimingFromEnv() TimingConfig {
	cfg := DefaultTiming()
	cfg.TurnDuration = getEnvDuration("TURN_DURATION", cfg.TurnDuration)
	cfg.CombatTurnDuration = getEnvDuration("COMBAT_TURN_DURATION", cfg.CombatTurnDuration)
	cfg.CombatTurnDurationNoEscape = getEnvDuration("COMBAT_TURN_DURATION_NO_ESCAPE", cfg.CombatTurnDurationNoEscape)
	cfg.BotMoveDelay = getEnvDuration("BOT_MOVE_DELAY", cfg.BotMoveDelay)
	cfg.BotAttackDelay = getEnvDuration("BOT_ATTACK_DELAY", cfg.BotAttackDelay)
	cfg.TurnTransitionDelay = getEnvDuration("TURN_TRANSITION_DELAY", cfg.TurnTransitionDelay)
	cfg.RoomIdleTimeout = getEnvDuration("ROOM_IDLE_TIMEOUT", cfg.RoomIdleTimeout)
	return cfg
}

// RateConfig limits client intents per connection.
type RateConfig struct {
	IntentsPerSecond float64
	Burst            int
}

func DefaultRate() RateConfig {
	return RateConfig{IntentsPerSecond: 20, Burst: 40}
}

func RateFromEnv() RateConfig {
	cfg := DefaultRate()
	if v := getEnvFloat("INTENTS_PER_SECOND", 0); v > 0 {
		cfg.IntentsPerSecond = v
	}
	if v := getEnvInt("INTENT_BURST", 0); v > 0 {
		cfg.Burst = v
	}
	return cfg
}

type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Store   StoreConfig
	Rooms   RoomConfig
	Timing  TimingConfig
	Rate    RateConfig
}

func Default() Config {
	return Config{
		Server:  DefaultServer(),
		Logging: DefaultLogging(),
		Rooms:   DefaultRooms(),
		Timing:  DefaultTiming(),
		Rate:    DefaultRate(),
	}
}

// Load reads .env when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Server:  ServerFromEnv(),
		Logging: LoggingFromEnv(),
		Store:   StoreFromEnv(),
		Rooms:   RoomsFromEnv(),
		Timing:  TimingFromEnv(),
		Rate:    RateFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("1500ms") or plain milliseconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
