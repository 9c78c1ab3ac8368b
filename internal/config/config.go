package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"feedmaker/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config хранит настройки сервиса и список публикуемых каналов.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Logger    logger.Config   `json:"logger" yaml:"logger"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Publisher PublisherConfig `json:"publisher" yaml:"publisher"`
	RabbitMQ  RabbitMQConfig  `json:"rabbitmq" yaml:"rabbitmq"`
	Channels  []ChannelConfig `json:"channels" yaml:"channels"`
}

// ServerConfig - адрес HTTP-сервера.
type ServerConfig struct {
	Address string `json:"address" yaml:"address"`
}

// StorageConfig выбирает драйвер хранилища записей: postgres или sqlite.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// PublisherConfig - период, с которым ленты перезаписываются на диск (в секундах).
type PublisherConfig struct {
	Interval int `json:"interval" yaml:"interval"`
}

// RabbitMQConfig - очередь запросов на пересборку и очередь уведомлений.
// Пустой URL отключает RabbitMQ.
type RabbitMQConfig struct {
	URL         string `json:"url" yaml:"url"`
	Queue       string `json:"queue" yaml:"queue"`
	NotifyQueue string `json:"notify_queue" yaml:"notify_queue"`
	Workers     int    `json:"workers" yaml:"workers"`
}

// ImageConfig - логотип канала.
type ImageConfig struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
	Link  string `json:"link" yaml:"link"`
}

// TagConfig - дополнительный элемент канала. Элементы выводятся в порядке списка.
type TagConfig struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Raw   bool   `json:"raw" yaml:"raw"`
}

// ChannelConfig описывает один RSS-канал.
type ChannelConfig struct {
	Name        string      `json:"name" yaml:"name"`
	Title       string      `json:"title" yaml:"title"`
	Link        string      `json:"link" yaml:"link"`
	Description string      `json:"description" yaml:"description"`
	Language    string      `json:"language" yaml:"language"`
	Encoding    string      `json:"encoding" yaml:"encoding"`
	Copyright   string      `json:"copyright" yaml:"copyright"`
	Webmaster   string      `json:"webmaster" yaml:"webmaster"`
	Category    string      `json:"category" yaml:"category"`
	PubDate     string      `json:"pub_date" yaml:"pub_date"`
	TTL         int         `json:"ttl" yaml:"ttl"`
	Image       ImageConfig `json:"image" yaml:"image"`
	CustomTags  []TagConfig `json:"custom_tags" yaml:"custom_tags"`
	OutputPath  string      `json:"output_path" yaml:"output_path"`
	Limit       int         `json:"limit" yaml:"limit"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultLimit = 20
)

// New возвращает конфигурацию со значениями по умолчанию.
func New() *Config {
	return &Config{
		Server:    ServerConfig{Address: ":8080"},
		Logger:    logger.Config{Level: "info"},
		Storage:   StorageConfig{Driver: DriverSQLite, DSN: "feedmaker.db"},
		Publisher: PublisherConfig{Interval: 300},
		RabbitMQ: RabbitMQConfig{
			Queue:       "feed_rebuild",
			NotifyQueue: "feed_published",
			Workers:     2,
		},
	}
}

// Interval возвращает период публикации.
func (cfg *Config) Interval() time.Duration {
	return time.Duration(cfg.Publisher.Interval) * time.Second
}

// Channel ищет канал по имени.
func (cfg *Config) Channel(name string) (ChannelConfig, bool) {
	for _, ch := range cfg.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return ChannelConfig{}, false
}

// ItemLimit возвращает число записей в ленте канала.
func (ch ChannelConfig) ItemLimit() int {
	if ch.Limit <= 0 {
		return defaultLimit
	}
	return ch.Limit
}

// Validate проверяет интервал публикации, драйвер хранилища и каналы.
func (cfg *Config) Validate() error {
	if cfg.Publisher.Interval < 5 {
		return errors.New("publish interval must be ≥ 5 seconds")
	}
	switch cfg.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN == "" {
		return errors.New("storage dsn is not set")
	}
	if len(cfg.Channels) == 0 {
		return errors.New("channels must not be empty")
	}

	seen := make(map[string]bool, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if ch.Name == "" {
			return errors.New("channel name cannot be empty")
		}
		if seen[ch.Name] {
			return fmt.Errorf("duplicate channel name: %s", ch.Name)
		}
		seen[ch.Name] = true

		if ch.Link != "" {
			if _, err := url.ParseRequestURI(ch.Link); err != nil {
				return fmt.Errorf("invalid channel link: %s", ch.Link)
			}
		}
		if ch.TTL < 0 {
			return fmt.Errorf("channel %s: ttl must not be negative", ch.Name)
		}
		for _, tag := range ch.CustomTags {
			if tag.Name == "" {
				return fmt.Errorf("channel %s: custom tag name cannot be empty", ch.Name)
			}
		}
	}
	return nil
}

// LoadConfig читает файл по пути path. Файлы .yaml/.yml декодируются как YAML,
// остальные - как JSON. Переменные ${VAR} подставляются из окружения; если рядом
// с конфигурацией лежит .env, он загружается первым.
func LoadConfig(path string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(raw))

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml from file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse json from file %s: %w", path, err)
		}
	}
	return cfg, nil
}
