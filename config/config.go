package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultCfgPath = "config/config.json"
)

type Config struct {
	Env               string   `json:"env" validate:"required,oneof=local dev prod"`
	HTTPAddr          string   `json:"http_addr" validate:"required"`
	GRPCAddr          string   `json:"grpc_addr"`
	CacheCap          int      `json:"cache_cap" validate:"gte=1"`
	LowStockThreshold int      `json:"low_stock_threshold" validate:"gte=0"`
	Storage           Storage  `json:"storage"`
	State             State    `json:"state"`
	Kafka             Kafka    `json:"kafka"`
	Telegram          Telegram `json:"telegram"`
}

type Storage struct {
	Driver     string `json:"driver" validate:"oneof=memory postgres"`
	Host       string `json:"db_host" validate:"required_if=Driver postgres"`
	Port       string `json:"db_port" validate:"required_if=Driver postgres"`
	DBUser     string `json:"-" validate:"required_if=Driver postgres"`
	DBName     string `json:"-" validate:"required_if=Driver postgres"`
	DBPassword string `json:"-" validate:"required_if=Driver postgres"`
}

// State - sqlite файл с состоянием клиентов, ":memory:" держит его в памяти
type State struct {
	Path string `json:"path" validate:"required"`
}

type Kafka struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `json:"topic" validate:"required_if=Enabled true"`
	GroupID string   `json:"group_id" validate:"required_if=Enabled true"`
}

type Telegram struct {
	APIURL         string `json:"api_url" validate:"omitempty,url"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
	BotToken       string `json:"bot_token"`
	ChatID         string `json:"chat_id"`
}

func (t Telegram) Timeout() time.Duration {
	if t.TimeoutSeconds == 0 {
		return 10 * time.Second
	}
	return time.Duration(t.TimeoutSeconds) * time.Second
}

var validate = validator.New()

// Load читает .env (если есть), json файл и переменные окружения
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("can`t load .env: %w", err)
	}

	if path == "" {
		path = defaultCfgPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	cfg := Config{
		HTTPAddr:          ":8080",
		CacheCap:          100,
		LowStockThreshold: 5,
		Storage:           Storage{Driver: "memory"},
		State:             State{Path: "state.db"},
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	applyEnv(&cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if user, ok := os.LookupEnv("DB_USER"); ok {
		cfg.Storage.DBUser = user
	}
	if password, ok := os.LookupEnv("DB_PASSWORD"); ok {
		cfg.Storage.DBPassword = password
	}
	if dbName, ok := os.LookupEnv("DB_NAME"); ok {
		cfg.Storage.DBName = dbName
	}
	if addr, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = addr
	}
	if token, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
		cfg.Telegram.BotToken = token
	}
	if chat, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
		cfg.Telegram.ChatID = chat
	}
	if brokers, ok := os.LookupEnv("KAFKA_BROKERS"); ok && brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("can`t load config, check configuration or .env files: ", err)
	}
	return cfg
}
