// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек биллингового сервиса
type Config struct {
	Env                     string `yaml:"env"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	AmqpConnection          `yaml:"amqp_connection"`
	HTTPServer              `yaml:"http_server"`
	Gateway                 `yaml:"gateway"`
	JWTToken                `yaml:"jwttoken"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// AmqpConnection структура для настройки подключения к RabbitMQ
type AmqpConnection struct {
	AmqpURI        string        `yaml:"amqp_uri"`
	ConnectRetries int           `yaml:"connect_retries" env-default:"5"`
	ConnectDelay   time.Duration `yaml:"connect_delay" env-default:"2s"`
}

// Gateway структура с учётными данными и адресами платёжного шлюза.
// CallbackToken — общий секрет, которым шлюз подтверждает webhook-вызовы.
// Секреты читаются из переменных окружения, а не из ambient-глобалов в коде.
type Gateway struct {
	APIURL         string        `yaml:"api_url"`
	APIKey         string        `yaml:"api_key" env:"GATEWAY_API_KEY"`
	CallbackToken  string        `yaml:"callback_token" env:"GATEWAY_CALLBACK_TOKEN"`
	SuccessURL     string        `yaml:"success_url"`
	FailureURL     string        `yaml:"failure_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"10s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH,
// завершает процесс при любой ошибке чтения
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
