// Package config loads onam settings from a YAML file with environment
// overrides and turns them into a connection, a logger and a naming
// strategy.
package config

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/basilgregory/onam"
	"github.com/basilgregory/onam/logger"
	"github.com/basilgregory/onam/schema"
	"github.com/basilgregory/onam/storage"
	"github.com/basilgregory/onam/utils"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Settings holds every onam setting.
// Environment variables override YAML values.
type Settings struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Naming   NamingConfig   `yaml:"naming"`
}

// DatabaseConfig holds the storage settings.
type DatabaseConfig struct {
	Name    string `yaml:"name" env:"ONAM_DB_NAME" env-default:"blog_db"`
	Version int    `yaml:"version" env:"ONAM_DB_VERSION" env-default:"1"`
	// Dialect is one of sqlite3, postgres, mysql, sqlserver
	Dialect string `yaml:"dialect" env:"ONAM_DIALECT" env-default:"sqlite3"`
	DSN     string `yaml:"dsn" env:"ONAM_DSN" env-default:"blog.db"`
	// PreparedStatements caches up to this many prepared statements, 0 disables it
	PreparedStatements int `yaml:"prepared_statements" env:"ONAM_PREPARED_STATEMENTS" env-default:"0"`
	// RelationCacheSize bounds the resolved collections kept in memory, 0 for no limit
	RelationCacheSize int `yaml:"relation_cache_size" env:"ONAM_RELATION_CACHE_SIZE" env-default:"0"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level string `yaml:"level" env:"ONAM_LOG_LEVEL" env-default:"warn"`
	// Format is one of std, logrus, zap, zerolog, slog
	Format                    string        `yaml:"format" env:"ONAM_LOG_FORMAT" env-default:"std"`
	SlowThreshold             time.Duration `yaml:"slow_threshold" env:"ONAM_LOG_SLOW_THRESHOLD" env-default:"200ms"`
	Colorful                  bool          `yaml:"colorful" env:"ONAM_LOG_COLORFUL" env-default:"false"`
	IgnoreRecordNotFoundError bool          `yaml:"ignore_record_not_found" env:"ONAM_LOG_IGNORE_NOT_FOUND" env-default:"true"`
	ParameterizedQueries      bool          `yaml:"parameterized_queries" env:"ONAM_LOG_PARAMETERIZED" env-default:"false"`
}

// NamingConfig holds the table naming settings.
type NamingConfig struct {
	TablePrefix   string `yaml:"table_prefix" env:"ONAM_TABLE_PREFIX" env-default:""`
	SingularTable bool   `yaml:"singular_table" env:"ONAM_SINGULAR_TABLE" env-default:"false"`
}

var logFormats = []string{"std", "logrus", "zap", "zerolog", "slog"}

// Load reads path with environment variable overrides, or the environment
// alone when path is empty.
func Load(path string) (*Settings, error) {
	cfg := &Settings{}

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (s *Settings) validate() error {
	if _, err := s.Dialect(); err != nil {
		return err
	}
	if _, err := s.LogLevel(); err != nil {
		return err
	}
	if utils.Contains(logFormats, strings.ToLower(s.Log.Format)) {
		return nil
	}
	return fmt.Errorf("unknown log format %q, want one of %s", s.Log.Format, strings.Join(logFormats, ", "))
}

// Dialect the configured storage dialect.
func (s *Settings) Dialect() (storage.Dialect, error) {
	return storage.DialectByName(s.Database.Dialect)
}

// LogLevel the configured log level.
func (s *Settings) LogLevel() (logger.LogLevel, error) {
	return logger.ParseLevel(s.Log.Level)
}

// LoggerConfig the logger.Config equivalent of the log settings.
func (s *Settings) LoggerConfig() logger.Config {
	level, _ := s.LogLevel()
	return logger.Config{
		SlowThreshold:             s.Log.SlowThreshold,
		Colorful:                  s.Log.Colorful,
		IgnoreRecordNotFoundError: s.Log.IgnoreRecordNotFoundError,
		ParameterizedQueries:      s.Log.ParameterizedQueries,
		LogLevel:                  level,
	}
}

// NewLogger builds the configured logger writing to w.
func (s *Settings) NewLogger(w io.Writer) (logger.Interface, error) {
	level, err := s.LogLevel()
	if err != nil {
		return nil, err
	}
	cfg := s.LoggerConfig()

	switch strings.ToLower(s.Log.Format) {
	case "", "std":
		return logger.New(log.New(w, "\r\n", log.LstdFlags), cfg), nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(logger.LogrusLevel(level))
		return logger.NewLogrusLogger(l, cfg), nil
	case "zap":
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			logger.ZapLevel(level),
		)
		return logger.NewZapLogger(zap.New(core), cfg), nil
	case "zerolog":
		l := zerolog.New(w).With().Timestamp().Logger().Level(logger.ZerologLevel(level))
		return logger.NewZerologLogger(l, cfg), nil
	case "slog":
		return logger.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logger.SlogLevel(level)})), cfg), nil
	}
	return nil, fmt.Errorf("unknown log format %q", s.Log.Format)
}

// NamingStrategy the configured naming strategy.
func (s *Settings) NamingStrategy() schema.NamingStrategy {
	return schema.NamingStrategy{
		TablePrefix:   s.Naming.TablePrefix,
		SingularTable: s.Naming.SingularTable,
	}
}

// StorageOptions connection options derived from the database settings.
func (s *Settings) StorageOptions() []storage.Option {
	var opts []storage.Option
	if s.Database.PreparedStatements > 0 {
		opts = append(opts, storage.WithPreparedStatements(s.Database.PreparedStatements))
	}
	return opts
}

// Connect opens the configured database and registers entities on it,
// logging to w.
func (s *Settings) Connect(w io.Writer, entities ...schema.Declaration) (*onam.DB, error) {
	dialect, err := s.Dialect()
	if err != nil {
		return nil, err
	}
	l, err := s.NewLogger(w)
	if err != nil {
		return nil, err
	}

	conn, err := storage.Open(dialect, s.Database.DSN, s.StorageOptions()...)
	if err != nil {
		return nil, err
	}

	db, err := onam.Open(conn, &onam.Config{
		Name:              s.Database.Name,
		Version:           s.Database.Version,
		Entities:          entities,
		NamingStrategy:    s.NamingStrategy(),
		Logger:            l,
		RelationCacheSize: s.Database.RelationCacheSize,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// YAML renders the effective settings.
func (s *Settings) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
