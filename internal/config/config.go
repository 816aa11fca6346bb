package config

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type RemoteConfig struct {
	BaseURL     string
	AccessToken string
	PageSize    int
	Timeout     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type FeedConfig struct {
	FetchTimeout    time.Duration
	MutationTimeout time.Duration
	MaxPostLength   int
	SelfInFollowing bool
}

type Config struct {
	Server       ServerConfig
	Remote       RemoteConfig
	Redis        RedisConfig
	Feed         FeedConfig
	TokenSecret  string
	ClientOrigin string
}

func SetDefaults() {
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("remote.page-size", 10)
	viper.SetDefault("remote.timeout", 10*time.Second)
	viper.SetDefault("redis.ttl", 24*time.Hour)
	viper.SetDefault("feed.fetch-timeout", 15*time.Second)
	viper.SetDefault("feed.mutation-timeout", 15*time.Second)
	viper.SetDefault("feed.max-post-length", 280)
	viper.SetDefault("feed.self-in-following", false)
	viper.SetDefault("client.origin", "http://localhost:3000")
}

// Load builds the config from viper (yaml file) and the environment
// (secrets loaded from .env).
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           viper.GetString("app.port"),
			MaxHeaderBytes: 1 << 20,
			ReadTimeout:    time.Second * 10,
			WriteTimeout:   time.Minute,
		},
		Remote: RemoteConfig{
			BaseURL:     viper.GetString("remote.api"),
			AccessToken: os.Getenv("ACCESS_TOKEN"),
			PageSize:    viper.GetInt("remote.page-size"),
			Timeout:     viper.GetDuration("remote.timeout"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("redis.db"),
			TTL:      viper.GetDuration("redis.ttl"),
		},
		Feed: FeedConfig{
			FetchTimeout:    viper.GetDuration("feed.fetch-timeout"),
			MutationTimeout: viper.GetDuration("feed.mutation-timeout"),
			MaxPostLength:   viper.GetInt("feed.max-post-length"),
			SelfInFollowing: viper.GetBool("feed.self-in-following"),
		},
		TokenSecret:  os.Getenv("TOKEN_SECRET"),
		ClientOrigin: viper.GetString("client.origin"),
	}
}
