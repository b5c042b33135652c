// Package config loads seqdb settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, variables
// from a .env file, process environment (SEQDB_*), command-line flags. The
// last step belongs to the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/seqdb/internal/keyspace"
)

// Config holds every setting seqdb reads.
type Config struct {
	// DataDir holds one SQLite file per partition.
	DataDir string `yaml:"data_dir"`

	// Alphabet and Length define the keyspace.
	Alphabet string `yaml:"alphabet"`
	Length   int    `yaml:"length"`

	// FoundFilesDir is the default source for ingest.
	FoundFilesDir string `yaml:"found_files_dir"`

	// ExportChunkSize is the number of sequences per exported chunk.
	ExportChunkSize int `yaml:"export_chunk_size"`

	// MetricsFile, when set, receives Prometheus metrics in text format
	// after commands that touch the store.
	MetricsFile string `yaml:"metrics_file"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:         "databases/sequences",
		Alphabet:        keyspace.DefaultAlphabet,
		Length:          keyspace.DefaultLength,
		FoundFilesDir:   "found-files",
		ExportChunkSize: 64,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is a YAML config file. Empty means none.
	File string

	// EnvFile is a dotenv file. A missing file is not an error.
	EnvFile string
}

// Load builds a Config from defaults, the YAML file, the dotenv file and the
// environment, then validates it.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := cfg.readFile(opts.File); err != nil {
			return Config{}, err
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readFile decodes path over cfg. Unknown fields are rejected so typos
// surface instead of silently falling back to defaults.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getEnv("SEQDB_DATA_DIR", c.DataDir)
	c.Alphabet = getEnv("SEQDB_ALPHABET", c.Alphabet)
	c.FoundFilesDir = getEnv("SEQDB_FOUND_FILES_DIR", c.FoundFilesDir)
	c.MetricsFile = getEnv("SEQDB_METRICS_FILE", c.MetricsFile)
	c.Log.Level = getEnv("SEQDB_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("SEQDB_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("SEQDB_LOG_FILE", c.Log.File)

	var err error
	if c.Length, err = getEnvInt("SEQDB_LENGTH", c.Length); err != nil {
		return err
	}
	if c.ExportChunkSize, err = getEnvInt("SEQDB_EXPORT_CHUNK_SIZE", c.ExportChunkSize); err != nil {
		return err
	}
	return nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if _, err := c.Keyspace(); err != nil {
		return err
	}
	if c.ExportChunkSize <= 0 {
		return fmt.Errorf("export_chunk_size must be positive, got %d", c.ExportChunkSize)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Keyspace builds the keyspace described by Alphabet and Length.
func (c Config) Keyspace() (keyspace.Keyspace, error) {
	return keyspace.New(c.Alphabet, c.Length)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
