package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration, populated from QCHAT_* environment
// variables with local-development defaults.
type Config struct {
	HTTPAddr string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	// MaxBodyBytes bounds request bodies; image payloads arrive inline as
	// data URIs so this needs headroom.
	MaxBodyBytes int64
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QCHAT")
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":5000")
	v.SetDefault("mongo_uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo_database", "qchat")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("jwt_ttl", "168h")
	v.SetDefault("max_body_bytes", 4<<20)

	ttl, err := time.ParseDuration(v.GetString("jwt_ttl"))
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:      v.GetString("http_addr"),
		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		JWTSecret:     v.GetString("jwt_secret"),
		JWTTTL:        ttl,
		MaxBodyBytes:  v.GetInt64("max_body_bytes"),
	}, nil
}
