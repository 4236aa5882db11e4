package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers de almacenamiento soportados.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	DB        DBConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	Ledger    LedgerConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env     string // development, staging, production
	Name    string
	Version string
}

type LogConfig struct {
	Level string // trace, debug, info, warn, error
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selecciona el backend de registros de inventario.
// Timeout acota cada llamada individual al almacenamiento.
type StorageConfig struct {
	Driver        string
	Timeout       time.Duration
	AutoMigrate   bool
	CatalogCSV    string // solo driver memory: catálogo inicial
	CatalogLatin1 bool
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo (ej. DATABASE_URL de Supabase).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	PreferIPv4  bool // Docker suele no tener IPv6
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string con URL encoding para caracteres especiales en la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MongoConfig libro de movimientos y catálogo cuando el driver es redis.
type MongoConfig struct {
	URI      string
	Database string
}

// LedgerConfig parámetros de reintento y compensación del motor.
type LedgerConfig struct {
	MaxAttempts          int
	BackoffInitial       time.Duration
	BackoffMax           time.Duration
	CompensationAttempts int
	CompensationTimeout  time.Duration
}

// KafkaConfig publicación de movimientos; sin brokers no se publica.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// TelemetryConfig exportación OTLP/HTTP de trazas; sin endpoint queda deshabilitada.
type TelemetryConfig struct {
	OtelEndpoint   string
	OtelAuthHeader string
	Insecure       bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, STORAGE_DRIVER, DB_HOST, LEDGER_MAX_ATTEMPTS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:     getString(v, "APP_ENV", "development"),
			Name:    getString(v, "APP_NAME", "stock-ledger"),
			Version: getString(v, "APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host:         getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:         getInt(v, "HTTP_PORT", 8080),
			ReadTimeout:  getDuration(v, "HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration(v, "HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getString(v, "STORAGE_DRIVER", DriverPostgres)),
			Timeout:       getDuration(v, "STORAGE_TIMEOUT", 2*time.Second),
			AutoMigrate:   getBool(v, "STORAGE_AUTO_MIGRATE", true),
			CatalogCSV:    getString(v, "CATALOG_CSV", ""),
			CatalogLatin1: getBool(v, "CATALOG_LATIN1", false),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "stock_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 25)),
			MinConns:    int32(getInt(v, "DB_MIN_CONNS", 2)),
			PreferIPv4:  getBool(v, "DB_PREFER_IPV4", true),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Mongo: MongoConfig{
			URI:      getString(v, "MONGO_URI", "mongodb://localhost:27017"),
			Database: getString(v, "MONGO_DATABASE", "stock_ledger"),
		},
		Ledger: LedgerConfig{
			MaxAttempts:          getInt(v, "LEDGER_MAX_ATTEMPTS", 4),
			BackoffInitial:       getDuration(v, "LEDGER_BACKOFF_INITIAL", 10*time.Millisecond),
			BackoffMax:           getDuration(v, "LEDGER_BACKOFF_MAX", 200*time.Millisecond),
			CompensationAttempts: getInt(v, "LEDGER_COMPENSATION_ATTEMPTS", 8),
			CompensationTimeout:  getDuration(v, "LEDGER_COMPENSATION_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getStringSlice(v, "KAFKA_BROKERS"),
			Topic:   getString(v, "KAFKA_TOPIC", "inventory.movements"),
		},
		Telemetry: TelemetryConfig{
			OtelEndpoint:   getString(v, "OTEL_ENDPOINT", ""),
			OtelAuthHeader: getString(v, "OTEL_AUTH_HEADER", ""),
			Insecure:       getBool(v, "OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rechaza drivers desconocidos y límites no positivos.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER desconocido: %q", c.Storage.Driver))
	}
	if c.Storage.Timeout <= 0 {
		errs = append(errs, errors.New("STORAGE_TIMEOUT debe ser positivo"))
	}
	if c.Ledger.MaxAttempts <= 0 {
		errs = append(errs, errors.New("LEDGER_MAX_ATTEMPTS debe ser positivo"))
	}
	if c.Ledger.CompensationAttempts <= 0 {
		errs = append(errs, errors.New("LEDGER_COMPENSATION_ATTEMPTS debe ser positivo"))
	}
	if c.Ledger.BackoffInitial <= 0 || c.Ledger.BackoffMax < c.Ledger.BackoffInitial {
		errs = append(errs, errors.New("LEDGER_BACKOFF_INITIAL/LEDGER_BACKOFF_MAX inválidos"))
	}
	if c.Ledger.CompensationTimeout <= 0 {
		errs = append(errs, errors.New("LEDGER_COMPENSATION_TIMEOUT debe ser positivo"))
	}
	if c.HTTP.Port <= 0 {
		errs = append(errs, errors.New("HTTP_PORT debe ser positivo"))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getDuration acepta formato Go ("250ms", "2s"); un entero se toma como milisegundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

// getStringSlice lista separada por comas, sin vacíos.
func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v.GetString(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
