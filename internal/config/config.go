package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	LogDir         string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	JWTSecret      string
	JWTExpiresIn   int64 // hours
	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string
	AIAPIKey       string
	AIBaseURL      string
	AIModel        string
	ClientURL      string
	RabbitMQURI    string
	EventExchange  string
	ConsulAddress  string
	ServiceName    string
	ServiceID      string
	ServiceAddress string
	Env            string
}

var ServiceConfig *Config

// Load reads .env (when present) and builds the config singleton.
// The JWT secret has no fallback: running without one is a deploy error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	expiryStr := getEnv("JWT_EXPIRES_IN", "168")
	expiry, err := strconv.Atoi(expiryStr)
	if err != nil || expiry <= 0 {
		log.Printf("Invalid JWT_EXPIRES_IN %q, falling back to 168h", expiryStr)
		expiry = 168
	}
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	ServiceConfig = &Config{
		Port:           getEnv("PORT", "3030"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogDir:         getEnv("LOG_DIR", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "kidoai"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PWD", ""),
		RedisDB:        redisDB,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiresIn:   int64(expiry),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: getEnv("GOOGLE_REDIRECT_URL", ""),
		AIAPIKey:       getEnv("AI_API_KEY", ""),
		AIBaseURL:      getEnv("AI_BASE_URL", "https://models.inference.ai.azure.com"),
		AIModel:        getEnv("AI_MODEL", "gpt-4o"),
		ClientURL:      getEnv("CLIENT_URL", "http://localhost:5173"),
		RabbitMQURI:    getEnv("RABBITMQ_URI", ""),
		EventExchange:  getEnv("RABBITMQ_EXCHANGE", "kidoai.events"),
		ConsulAddress:  getEnv("CONSUL_ADDR", ""),
		ServiceName:    getEnv("SERVICE_NAME", "kidoai-service"),
		ServiceID:      getEnv("SERVICE_NAME", "kidoai-service") + "-" + getEnv("HOSTNAME", "1"),
		ServiceAddress: getEnv("SERVICE_ADDRESS", "kidoai-service"),
		Env:            getEnv("APP_ENV", "development"),
	}

	if ServiceConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return ServiceConfig
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
