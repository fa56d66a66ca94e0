package config

import (
	"fmt"
	"invitetrack/lib/validate"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type DiscordConfig struct {
	Token       string `yaml:"token" env:"DISCORD_TOKEN" env-default:"" validate:"required"`
	AppId       string `yaml:"app_id" env:"DISCORD_APP_ID" env-default:""`
	GuildId     string `yaml:"guild_id" env-default:""`
	AdminRoleId string `yaml:"admin_role_id" env-default:""`
	ReplyTTL    int    `yaml:"reply_ttl" env-default:"20" validate:"min=1"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"invitetrack"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	ChatIds  []int64 `yaml:"chat_ids"`
	MinLevel string  `yaml:"min_level" env-default:"error" validate:"oneof=debug info warn error"`
}

type ApiConfig struct {
	CorsOrigins []string `yaml:"cors_origins"`
}

type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Telegram TelegramConfig `yaml:"telegram"`
	Api      ApiConfig      `yaml:"api"`
	Listen   Listen         `yaml:"listen"`
	Env      string         `yaml:"env" env-default:"local" validate:"oneof=local dev prod"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = validate.Struct(instance); err != nil {
			instance = nil
			log.Fatal(fmt.Errorf("config: %w", err))
		}
	})
	return instance
}
