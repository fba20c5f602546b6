package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// StorageSQLite 使用 SQLite 偏好表持久化
	StorageSQLite = "sqlite"
	// StorageMemory 仅保存在进程内，重启即丢失
	StorageMemory = "memory"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabasePath   string
	StorageDriver  string
	SessionSecret  string
	GinMode        string
	LogLevel       string
	LogFile        string
	Language       string
	RateLimitRPS   float64
	RateLimitBurst int
	// CORSOrigins 为空时不启用跨域
	CORSOrigins []string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOrDefault("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	storage := strings.ToLower(envOrDefault("STORAGE_DRIVER", StorageSQLite))
	if storage != StorageMemory {
		storage = StorageSQLite
	}

	rps, err := strconv.ParseFloat(envOrDefault("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps <= 0 {
		rps = 10
	}

	burst, err := strconv.Atoi(envOrDefault("RATE_LIMIT_BURST", "30"))
	if err != nil || burst <= 0 {
		burst = 30
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabasePath:   envOrDefault("DATABASE_PATH", "fitit.db"),
		StorageDriver:  storage,
		SessionSecret:  envOrDefault("SESSION_SECRET", "fitit-dev-secret"),
		GinMode:        envOrDefault("GIN_MODE", "release"),
		LogLevel:       strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFile:        strings.TrimSpace(os.Getenv("LOG_FILE")),
		Language:       envOrDefault("APP_LANGUAGE", "pl"),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		CORSOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
