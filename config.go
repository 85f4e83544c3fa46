// config.go

package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       []byte
	StripeSecretKey string
	Port            string
	AllowedOrigins  []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("DB_NAME", "boss-restaurant"),
		JWTSecret:       []byte(os.Getenv("ACCESS_SECRET_TOKEN")),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Port:            getEnv("PORT", "5000"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	if len(cfg.JWTSecret) == 0 {
		logrus.Fatal("ACCESS_SECRET_TOKEN not set")
	}
	if cfg.StripeSecretKey == "" {
		logrus.Fatal("STRIPE_SECRET_KEY not set")
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
