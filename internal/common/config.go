package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OCR engines.
const (
	EngineTesseractCLI = "tesseract"
	EngineGosseract    = "gosseract"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Scan     ScanConfig     `yaml:"scan"`
	OCR      OCRConfig      `yaml:"ocr"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// ScanConfig controls where documents are discovered.
type ScanConfig struct {
	Directory   string        `yaml:"directory"`
	Watch       bool          `yaml:"watch"`
	Debounce    time.Duration `yaml:"debounce"`
	ScanOnStart bool          `yaml:"scan_on_start"`
	SkipHidden  bool          `yaml:"skip_hidden"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine               string   `yaml:"engine"`
	Tesseract            string   `yaml:"tesseract"`
	Pdftoppm             string   `yaml:"pdftoppm"`
	TessdataDir          string   `yaml:"tessdata_dir"`
	Languages            []string `yaml:"languages"`
	DPI                  int      `yaml:"dpi"`
	MinTextLength        int      `yaml:"min_text_length"`
	DirectTextConfidence float64  `yaml:"direct_text_confidence"`
	MaxPages             int      `yaml:"max_pages"`
	PSM                  int      `yaml:"psm"`
}

// WorkerConfig controls the extraction loop.
type WorkerConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	RecoverOnStart bool          `yaml:"recover_on_start"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			DSN:             "file:ugody.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		Scan: ScanConfig{
			Directory: "./documents",
			Debounce:  2 * time.Second,
		},
		OCR: OCRConfig{
			Engine:               EngineTesseractCLI,
			Tesseract:            "tesseract",
			Pdftoppm:             "pdftoppm",
			TessdataDir:          "./tessdata",
			Languages:            []string{"pol", "eng"},
			DPI:                  300,
			MinTextLength:        50,
			DirectTextConfidence: 95.0,
		},
		Worker: WorkerConfig{
			PollInterval:   time.Second,
			ProcessTimeout: 3 * time.Minute,
			RecoverOnStart: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers the defaults, an optional YAML file and the environment.
// path falls back to UGODY_CONFIG; an empty path skips the file layer.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError("CONFIG_ERROR", "failed to load .env", err)
	}

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("UGODY_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %q", path), err)
	}
	if err := ValidateConfigFile(raw); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("config file %q", path), errors.Join(ErrValidation, err))
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("decode config file %q", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.Scan.Directory = getEnv("SCAN_DIRECTORY", c.Scan.Directory)
	c.Scan.Watch = getEnvAsBool("SCAN_WATCH", c.Scan.Watch)
	c.Scan.Debounce = getEnvAsDuration("SCAN_DEBOUNCE", c.Scan.Debounce)
	c.Scan.ScanOnStart = getEnvAsBool("SCAN_ON_START", c.Scan.ScanOnStart)
	c.Scan.SkipHidden = getEnvAsBool("SCAN_SKIP_HIDDEN", c.Scan.SkipHidden)

	c.OCR.Engine = getEnv("OCR_ENGINE", c.OCR.Engine)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", c.OCR.Pdftoppm)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Languages = getEnvAsList("OCR_LANGUAGES", c.OCR.Languages)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MinTextLength = getEnvAsInt("OCR_MIN_TEXT_LENGTH", c.OCR.MinTextLength)
	c.OCR.DirectTextConfidence = getEnvAsFloat64("OCR_DIRECT_TEXT_CONFIDENCE", c.OCR.DirectTextConfidence)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.PSM = getEnvAsInt("OCR_PSM", c.OCR.PSM)

	c.Worker.PollInterval = getEnvAsDuration("WORKER_POLL_INTERVAL", c.Worker.PollInterval)
	c.Worker.ProcessTimeout = getEnvAsDuration("WORKER_PROCESS_TIMEOUT", c.Worker.ProcessTimeout)
	c.Worker.RecoverOnStart = getEnvAsBool("WORKER_RECOVER_ON_START", c.Worker.RecoverOnStart)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList accepts tesseract style "pol+eng" as well as "pol,eng".
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' || r == ' ' })
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	err := validation.Errors{
		"database": validation.ValidateStruct(&c.Database,
			validation.Field(&c.Database.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
			validation.Field(&c.Database.DSN, validation.Required),
			validation.Field(&c.Database.MaxConns, validation.Min(int32(1))),
			validation.Field(&c.Database.MinConns, validation.Min(int32(0)), validation.Max(c.Database.MaxConns)),
		),
		"scan": validation.ValidateStruct(&c.Scan,
			validation.Field(&c.Scan.Directory, validation.When(c.Scan.Watch || c.Scan.ScanOnStart, validation.Required)),
			validation.Field(&c.Scan.Debounce, validation.Min(time.Duration(0))),
		),
		"ocr": validation.ValidateStruct(&c.OCR,
			validation.Field(&c.OCR.Engine, validation.Required, validation.In(EngineTesseractCLI, EngineGosseract)),
			validation.Field(&c.OCR.Languages, validation.Required, validation.Each(validation.Required)),
			validation.Field(&c.OCR.DPI, validation.Min(72), validation.Max(1200)),
			validation.Field(&c.OCR.MinTextLength, validation.Min(1)),
			validation.Field(&c.OCR.DirectTextConfidence, validation.Min(0.0).Exclusive(), validation.Max(100.0)),
			validation.Field(&c.OCR.MaxPages, validation.Min(0)),
		),
		"worker": validation.ValidateStruct(&c.Worker,
			validation.Field(&c.Worker.PollInterval, validation.Required, validation.Min(time.Millisecond)),
			validation.Field(&c.Worker.ProcessTimeout, validation.Required),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&c.Log.Format, validation.In("json", "text")),
		),
	}.Filter()
	if err != nil {
		return NewAppError("CONFIG_ERROR", "invalid configuration", errors.Join(ErrValidation, err))
	}
	return nil
}
