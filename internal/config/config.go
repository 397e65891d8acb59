package config

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Mode         string
	ServerURL    string
	SocketURL    string
	DatabasePath string
	LogLevel     string
}

func Load() *Config {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".chatlink")

	cfg := &Config{}

	flag.StringVar(&cfg.Mode, "mode", "interactive", "Run mode: interactive or headless")
	flag.StringVar(&cfg.ServerURL, "server", getEnv("CHATLINK_SERVER_URL", "http://localhost:3000"), "Chat server base URL")
	flag.StringVar(&cfg.SocketURL, "socket", getEnv("CHATLINK_SOCKET_URL", "ws://localhost:3000/ws"), "Chat server websocket URL")
	flag.StringVar(&cfg.DatabasePath, "db", getEnv("CHATLINK_DATABASE_PATH", filepath.Join(dataDir, "chatlink.db")), "Session database file path")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("CHATLINK_LOG_LEVEL", "info"), "Log level: debug, info, warn, or error")

	flag.Parse()

	// Ensure the data directory exists
	os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
