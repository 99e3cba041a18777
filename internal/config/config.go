package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort string `envconfig:"server_port" default:"8080"`
	DBHost     string `envconfig:"db_host" default:"localhost"`
	DBPort     string `envconfig:"db_port" default:"5432"`
	DBUser     string `envconfig:"db_user" default:"loom"`
	DBPassword string `envconfig:"db_password" default:"loom_dev_password"`
	DBName     string `envconfig:"db_name" default:"loom"`
	DBSSLMode  string `envconfig:"db_sslmode" default:"disable"`
	DBMaxConns int    `envconfig:"db_max_conns" default:"10"`
	JWTSecret  string `envconfig:"jwt_secret" default:"dev-secret-change-me"`
	Env        string `envconfig:"env" default:"dev"`
}

func Load() (*Config, error) {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	if err := envconfig.Process("loom", c); err != nil {
		return nil, err
	}
	return c, nil
}
