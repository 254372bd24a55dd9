package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del mirror engine.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controla el comportamiento del loop de mirroring.
type EngineConfig struct {
	IntervalSeconds       int `yaml:"interval_seconds"`        // intervalo de polling (2–30s en la práctica)
	Workers               int `yaml:"workers"`                 // concurrencia acotada entre followers
	OrderAttempts         int `yaml:"order_attempts"`          // presupuesto de reintentos por orden
	CatalogRefreshMinutes int `yaml:"catalog_refresh_minutes"` // refresco grueso del catálogo de productos
}

// APIConfig contiene el base URL del exchange.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las credenciales nunca viven en el YAML: llegan por la base de
// cuentas; el .env cubre overrides de entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval devuelve el intervalo de polling como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// CatalogRefresh devuelve el intervalo de refresco del catálogo.
func (c *Config) CatalogRefresh() time.Duration {
	return time.Duration(c.Engine.CatalogRefreshMinutes) * time.Minute
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MIRROR_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("MIRROR_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 10
	}
	if cfg.Engine.Workers <= 0 {
		cfg.Engine.Workers = 4
	}
	if cfg.Engine.OrderAttempts <= 0 {
		cfg.Engine.OrderAttempts = 3
	}
	if cfg.Engine.CatalogRefreshMinutes <= 0 {
		cfg.Engine.CatalogRefreshMinutes = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "mirrorbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
