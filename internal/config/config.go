package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера-песочницы.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Presence  PresenceConfig  `yaml:"presence"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig описывает сетевые порты процесса.
type ServerConfig struct {
	WSPort     int `yaml:"ws_port"`     // WebSocket вход для игровых клиентов
	StatusPort int `yaml:"status_port"` // REST статус/метрики
}

// StorageConfig описывает долговременное хранилище блоков.
// Пустой DSN и пустой BadgerPath — штатный сигнал работать в
// чисто in-memory режиме (мир генерируется заново при каждом старте).
type StorageConfig struct {
	Driver     string `yaml:"driver"`      // "maria" | "badger" | "" (auto по заполненным полям)
	MariaDSN   string `yaml:"maria_dsn"`   // user:pass@tcp(host:port)/dbname
	BadgerPath string `yaml:"badger_path"` // каталог встроенной БД
}

// PresenceConfig описывает best-effort хранилище последних
// замеченных игроков (аналитика, не читается обратно в игру).
type PresenceConfig struct {
	Backend   string `yaml:"backend"` // "maria" | "redis" | "" (выключено)
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// EventBusConfig описывает шину мировых событий.
// Пустой URL — внутрипроцессная шина.
type EventBusConfig struct {
	URL       string `yaml:"url"`    // nats://host:4222
	Stream    string `yaml:"stream"` // имя JetStream стрима
	Retention int    `yaml:"retention_hours"`
}

// TelemetryConfig включает экспорт трейсов OTLP.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GetWSPort возвращает порт WebSocket с поддержкой fallback значений
func (s *ServerConfig) GetWSPort() int {
	return getPortWithEnvFallback(s.WSPort, "GAME_WS_PORT", 3000)
}

// GetStatusPort возвращает порт статуса с поддержкой fallback значений
func (s *ServerConfig) GetStatusPort() int {
	return getPortWithEnvFallback(s.StatusPort, "GAME_STATUS_PORT", 8088)
}

// GetMariaDSN возвращает DSN с приоритетом: config -> env.
// Пустая строка означает отсутствие реляционного хранилища.
func (s *StorageConfig) GetMariaDSN() string {
	if s.MariaDSN != "" {
		return s.MariaDSN
	}
	return os.Getenv("GAME_DB_DSN")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV GAME_CONFIG; если и он пуст —
// возвращает конфигурацию с нулевыми значениями (работают дефолты).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
