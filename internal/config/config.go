package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
		// Выключает полнотекстовый поиск по каталогу. Текстовый запрос
		// при выключенном FTS - ошибка конфигурации, fallback на LIKE нет.
		DisableFullTextSearch bool `yaml:"disable_full_text_search"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"`
	} `yaml:"jwt"`

	Moderation struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		TimeoutSec     int    `yaml:"timeout_sec"`
		MaxRetries     int    `yaml:"max_retries"`
		Workers        int    `yaml:"workers"`
		QueueKey       string `yaml:"queue_key"`
		SearchQueueKey string `yaml:"search_queue_key"`
	} `yaml:"moderation"`

	Search struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"search"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	// .env подхватывается для локальной разработки, в проде переменные
	// приходят из окружения. Отсутствие файла не ошибка.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	serverEnv := os.Getenv("SERVER_ENV")
	portStr := os.Getenv("SERVER_PORT")
	jwtSecret := os.Getenv("JWT_SECRET")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml (режим НЕ-тест)")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	log.Println("✅ Загрузка конфигурации из ПЕРЕМЕННЫХ ОКРУЖЕНИЯ (режим теста)")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = serverEnv
	cfg.Server.Port, _ = strconv.Atoi(portStr)
	cfg.JWT.Secret = jwtSecret
	cfg.JWT.TTL = 60

	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.DB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	cfg.Moderation.BaseURL = os.Getenv("MODERATION_BASE_URL")
	cfg.Moderation.APIKey = os.Getenv("MODERATION_API_KEY")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Moderation.TimeoutSec == 0 {
		cfg.Moderation.TimeoutSec = 10
	}
	if cfg.Moderation.MaxRetries == 0 {
		cfg.Moderation.MaxRetries = 5
	}
	if cfg.Moderation.Workers == 0 {
		cfg.Moderation.Workers = 2
	}
	if cfg.Moderation.QueueKey == "" {
		cfg.Moderation.QueueKey = "moderation:jobs"
	}
	if cfg.Moderation.SearchQueueKey == "" {
		cfg.Moderation.SearchQueueKey = "search:rebuild"
	}
	if cfg.Search.PageSize == 0 {
		cfg.Search.PageSize = 10
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
