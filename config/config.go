package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de armazenamento suportados.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config armazena todas as configurações do GoSIGO.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Armazenamento
	StoreBackend   string // memory | file | postgres
	DataFile       string // blob JSON do backend file
	SeedDemo       bool   // semeia o conjunto de demonstração no primeiro carregamento
	ResetDemoUsers bool   // reescreve users com a semente em cada carregamento (só demo)

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis); vazio desliga cache e rate limiting
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança
	JWTSecretKey string
	TokenExpiry  time.Duration
	BcryptCost   int

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Dashboard e consultas
	PollInterval time.Duration
	PageSize     int
	Timezone     string
}

// LoadConfig lê a configuração das variáveis de ambiente e, se existir,
// de um config.yaml (na raiz ou em ./config). O ambiente tem precedência.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("falha ao ler config.yaml: %w", err)
		}
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		StoreBackend:   strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DataFile:       v.GetString("DATA_FILE"),
		SeedDemo:       v.GetBool("SEED_DEMO"),
		ResetDemoUsers: v.GetBool("RESET_DEMO_USERS"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBTimeout:   positiveInt(v, "DB_TIMEOUT_SEC", 5) * time.Second,

		RedisAddr: v.GetString("REDIS_ADDR"),
		CacheTTL:  positiveInt(v, "CACHE_TTL_SEC", 30) * time.Second,

		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  positiveInt(v, "JWT_EXPIRY_MIN", 60) * time.Minute,
		BcryptCost:   v.GetInt("BCRYPT_COST"),

		RateLimitMaxRequests: int(positiveInt(v, "RATE_LIMIT_MAX_REQUESTS", 100)),
		RateLimitPeriod:      positiveInt(v, "RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		PollInterval: positiveInt(v, "POLL_INTERVAL_SEC", 5) * time.Second,
		PageSize:     int(positiveInt(v, "PAGE_SIZE", 10)),
		Timezone:     v.GetString("TIMEZONE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseURL lê apenas DATABASE_URL, para as ferramentas que não arrancam o servidor.
func LoadDatabaseURL() (string, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("falha ao ler config.yaml: %w", err)
		}
	}

	url := v.GetString("DATABASE_URL")
	if url == "" {
		return "", errors.New("a variável de ambiente DATABASE_URL deve ser definida")
	}
	return url, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("DATA_FILE", "data/sigo.json")
	v.SetDefault("SEED_DEMO", true)
	v.SetDefault("RESET_DEMO_USERS", true)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("TIMEZONE", "Africa/Luanda")
}

// validate garante que a aplicação não arranca sem os valores essenciais.
func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("a variável de ambiente JWT_SECRET_KEY deve ser definida")
	}
	switch c.StoreBackend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL é obrigatória com STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND inválido: %q (use memory, file ou postgres)", c.StoreBackend)
	}
	if c.StoreBackend == BackendFile && c.DataFile == "" {
		return errors.New("DATA_FILE é obrigatória com STORE_BACKEND=file")
	}
	return nil
}

// Location devolve o fuso horário usado nos filtros de datas.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// positiveInt lê um inteiro positivo; valores ausentes, inválidos ou <= 0 dão o padrão.
func positiveInt(v *viper.Viper, key string, defaultValue int) time.Duration {
	n := v.GetInt(key)
	if n <= 0 {
		return time.Duration(defaultValue)
	}
	return time.Duration(n)
}
