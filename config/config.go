package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// a missing .env is fine, the process env still applies
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string `validate:"omitempty,oneof=development production test"`
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int `validate:"gte=1,lte=65535"`
	// Gemini
	GEMINI_API_KEY         string
	GEMINI_MODEL           string
	GEMINI_TEMPERATURE     *float32 `validate:"omitempty,gte=0,lte=2"` // unset keeps the client default
	AI_REQUESTS_PER_MINUTE int      `validate:"gte=1"`
	// YouTube Data API
	YOUTUBE_API_KEY string
	// Redis (optional analysis cache)
	REDIS_URL string
	// HTTP
	ALLOWED_ORIGINS string
	CRON_ENABLED    bool
	// S3-compatible paper archive (optional)
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	aiRPM, err := strconv.Atoi(os.Getenv("AI_REQUESTS_PER_MINUTE"))
	if err != nil || aiRPM <= 0 {
		aiRPM = 60
	}

	var temperature *float32
	if raw := os.Getenv("GEMINI_TEMPERATURE"); raw != "" {
		value, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid GEMINI_TEMPERATURE %q: %w", raw, err)
		}
		t := float32(value)
		temperature = &t
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		// Gemini
		GEMINI_API_KEY:         os.Getenv("GEMINI_API_KEY"),
		GEMINI_MODEL:           getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GEMINI_TEMPERATURE:     temperature,
		AI_REQUESTS_PER_MINUTE: aiRPM,
		// YouTube
		YOUTUBE_API_KEY: os.Getenv("YOUTUBE_API_KEY"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// HTTP
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		// Spaces
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     os.Getenv("SPACES_REGION"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
	}

	if err := validator.New().Struct(envVariables); err != nil {
		return nil, err
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV selects the production profile
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// SpacesEnabled reports whether enough storage settings exist to archive uploads
func (e *EnviornmentVariable) SpacesEnabled() bool {
	return e.SPACES_BUCKET != "" && e.SPACES_REGION != "" &&
		e.SPACES_ACCESS_KEY != "" && e.SPACES_SECRET_KEY != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
