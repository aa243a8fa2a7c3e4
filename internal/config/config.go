package config

import (
	"os"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth (single operator)
	AdminUsername string
	AdminPassword string
	JWTSecret     string

	// Monitoring (Netdata)
	NetdataURL string

	// LLM (OpenAI-compatible)
	LLMAPIKey string
	LLMAPIURL string
	LLMModel  string

	// Automation
	AutomationURL string // automation controller webhook
	CallbackURL   string // address the executor reports back to
	PlaybookDir   string // local dry-run fallback playbooks
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8000"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "aiops"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", "aiops_brain"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		NetdataURL:    getEnv("NETDATA_URL", "http://localhost:19999"),
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),
		LLMAPIURL:     getEnv("LLM_API_URL", "https://api.cerebras.ai/v1/chat/completions"),
		LLMModel:      getEnv("LLM_MODEL", "llama-3.3-70b"),
		AutomationURL: getEnv("AUTOMATION_URL", "http://localhost:5000"),
		CallbackURL:   getEnv("CALLBACK_URL", "http://localhost:8000/automation/callback"),
		PlaybookDir:   getEnv("PLAYBOOK_DIR", "playbooks"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
