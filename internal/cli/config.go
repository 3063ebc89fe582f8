package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/keepsake/internal/paths"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyLogLevel       = "log_level"
	cfgKeyBackupDir      = "backup.dir"
	cfgKeyBackupCompress = "backup.compress"
	cfgKeyBackupRemote   = "backup.remote"
	cfgKeyBackupLocalDir = "backup.local_dir"
	cfgKeyS3Bucket       = "backup.s3.bucket"
	cfgKeyS3Region       = "backup.s3.region"
	cfgKeyS3Endpoint     = "backup.s3.endpoint"
	cfgKeyS3PathStyle    = "backup.s3.path_style"
	cfgKeyS3Prefix       = "backup.s3.prefix"
)

// configFile is the structure written to config.yaml on first run.
type configFile struct {
	Backend  string       `yaml:"backend"`
	DataDir  string       `yaml:"data_dir,omitempty"`
	LogLevel string       `yaml:"log_level"`
	Backup   backupConfig `yaml:"backup"`
}

type backupConfig struct {
	Dir      string   `yaml:"dir,omitempty"`
	Compress bool     `yaml:"compress"`
	Remote   string   `yaml:"remote,omitempty"`
	LocalDir string   `yaml:"local_dir,omitempty"`
	S3       s3Config `yaml:"s3,omitempty"`
}

type s3Config struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:  types.BackendSQLite,
		LogLevel: "warn",
	}
}

// loadConfig resolves the config directory, writes a default config.yaml on
// first run, reads it with viper and builds the logger.
func (a *app) loadConfig() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return a.fail(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return a.fail(fmt.Errorf("ensure default config: %w", err))
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyBackupCompress, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &exitError{code: exitUserError, err: fmt.Errorf("read config: %w", err)}
		}
	}

	a.configDir = configDir
	a.config = v
	a.logger = newLogger(a.stderr, v.GetString(cfgKeyLogLevel), a.flags.verbose)
	a.logger.Debug("config loaded", "config_dir", configDir, "backend", v.GetString(cfgKeyBackend))
	return nil
}

// ensureDefaultConfigFile creates the config directory and a default
// config.yaml if the file does not exist.
func ensureDefaultConfigFile(configDir string) error {
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return err
	}
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfigFile())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# keepsake configuration\n# backup.remote is \"local\" (backup.local_dir) or \"s3\" (backup.s3.*).\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
