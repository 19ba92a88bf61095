package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

var Cfg *AppConfig

type AppConfig struct {
	Dev       bool            `yaml:"dev"`
	Listen    string          `yaml:"listen"`
	Redis     Redis           `yaml:"redis"`
	Mysql     MysqlConfig     `yaml:"mysql"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Providers ProvidersConfig `yaml:"providers"`
	Aliyun    Aliyun          `yaml:"aliyun"`
	Poller    PollerConfig    `yaml:"poller"`
	Cms       CmsConfig       `yaml:"cms"`
	Fields    FieldsConfig    `yaml:"fields"`
}

// CmsConfig points at the external content store's REST API. The content
// entities themselves are owned there; we only read revisions and write
// back translations.
type CmsConfig struct {
	Url   string `yaml:"url"`
	Token string `yaml:"token"`
}

// FieldsConfig supplies the translation-sync field policy. Field semantics
// are never hardcoded in the core.
type FieldsConfig struct {
	// Excluded maps entity type to field names that must never be sent
	// for translation.
	Excluded map[string][]string `yaml:"excluded"`
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

type MysqlConfig struct {
	DataSourceName  string `yaml:"data_source_name"`
	MaxIdleCount    int    `yaml:"max_idle_count"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

type AuthConfig struct {
	// HMAC secret for operator access tokens.
	Jwt string `yaml:"jwt"`
	// Shared token providers must present on callback requests.
	CallbackToken string `yaml:"callback_token"`
}

// ProviderConfig holds per-provider connection and billing settings.
// PageSize and VolumeMultiplier drive billable page computation; they are
// provider configuration, never core constants.
type ProviderConfig struct {
	Endpoint         string  `yaml:"endpoint"`
	Username         string  `yaml:"username"`
	Password         string  `yaml:"password"`
	RequesterCode    string  `yaml:"requester_code"`
	PageSize         int     `yaml:"page_size"`
	VolumeMultiplier float64 `yaml:"volume_multiplier"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
}

type ProvidersConfig struct {
	Poetry    ProviderConfig `yaml:"poetry"`
	Epoetry   ProviderConfig `yaml:"epoetry"`
	Transrest ProviderConfig `yaml:"transrest"`
}

type Aliyun struct {
	AccessKeyId     string `yaml:"accessKeyId"`
	AccessKeySecret string `yaml:"accessKeySecret"`
}

type PollerConfig struct {
	// Cron expression for pull-mode provider polling.
	Schedule string `yaml:"schedule"`
	Enabled  bool   `yaml:"enabled"`
}

func init() {
	file, err := os.Open("config.yml")
	if err != nil {
		log.Fatalf("Error opening config file: %v", err)
	}
	defer func() {
		err := file.Close()
		if err != nil {
			log.Printf("Error close config file: %v", err)
		}
	}()

	Cfg = &AppConfig{}
	if err := yaml.NewDecoder(file).Decode(Cfg); err != nil {
		log.Fatalf("Error decoding config file: %v", err)
	}

	if Cfg.Listen == "" {
		Cfg.Listen = ":3001"
	}
	if Cfg.Poller.Schedule == "" {
		Cfg.Poller.Schedule = "@every 15m"
	}
}
