package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/datumkit/errors"
	"github.com/kbukum/datumkit/logger"
)

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv loads a .env file without overriding variables already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

type loadOptions struct {
	fs         FileSystem
	configFile string
	envFile    string
	envPrefix  string
	noEnv      bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithFileSystem sets the filesystem used to resolve files.
func WithFileSystem(fs FileSystem) Option {
	return func(o *loadOptions) { o.fs = fs }
}

// WithConfigFile sets an explicit config file. Load fails if it is missing.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithEnvPrefix changes the environment variable prefix. The default is the
// application name upper-cased with dashes replaced, e.g. MY_JOB_.
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) { o.envPrefix = prefix }
}

// WithoutEnv disables environment overrides.
func WithoutEnv() Option {
	return func(o *loadOptions) { o.noEnv = true }
}

// Files are the config and .env paths a load resolved. Either may be empty.
type Files struct {
	ConfigFile string
	EnvFile    string
}

// Resolve finds the config and .env files for an application.
func Resolve(name string, fs FileSystem) Files {
	var files Files
	for _, path := range configCandidates(name) {
		if fs.Exists(path) {
			files.ConfigFile = path
			break
		}
	}
	for _, path := range envCandidates(name) {
		if fs.Exists(path) {
			files.EnvFile = path
			break
		}
	}
	return files
}

func configCandidates(name string) []string {
	var paths []string
	for _, ext := range []string{".yml", ".yaml"} {
		paths = append(paths,
			name+ext,
			filepath.Join("config", name+ext),
			filepath.Join("cmd", name, "config"+ext),
			filepath.Join("config", "config"+ext),
			"config"+ext,
		)
	}
	return paths
}

func envCandidates(name string) []string {
	var paths []string
	for _, file := range []string{".env." + name, ".env"} {
		paths = append(paths, file, filepath.Join("config", file), filepath.Join("cmd", name, file))
	}
	return paths
}

// Load reads configuration for the named application into cfg. The YAML
// file is read first, then the .env file is loaded into the process
// environment, then every variable carrying the prefix overrides file values:
// MY_JOB_EXECUTION_WORKERS=4 sets execution.workers.
func Load(name string, cfg any, opts ...Option) error {
	o := loadOptions{fs: OSFileSystem{}, envPrefix: envPrefix(name)}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.Get("config")

	files := Resolve(name, o.fs)
	if o.configFile != "" {
		if !o.fs.Exists(o.configFile) {
			return errors.NotFound("config file", o.configFile)
		}
		files.ConfigFile = o.configFile
	}
	if o.envFile != "" {
		files.EnvFile = o.envFile
	}

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidInput("config file", err.Error()).WithCause(err)
		}
		log.Debug("config file loaded", logger.Fields("path", files.ConfigFile))
	}

	if !o.noEnv {
		if files.EnvFile != "" && o.fs.Exists(files.EnvFile) {
			if err := o.fs.LoadEnv(files.EnvFile); err != nil {
				log.Warn("failed to load env file", logger.MergeWithError(logger.Fields("path", files.EnvFile), err))
			}
		}
		bindEnv(v, o.envPrefix)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidInput("config", err.Error()).WithCause(err)
	}
	return nil
}

// New loads, defaults and validates a Config.
func New(name string, opts ...Option) (*Config, error) {
	var cfg Config
	if err := Load(name, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name)) + "_"
}

// bindEnv sets every key variant of each prefixed variable, since viper only
// resolves AutomaticEnv for keys it already knows.
func bindEnv(v *viper.Viper, prefix string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		for _, variant := range keyVariants(strings.TrimPrefix(key, prefix)) {
			v.Set(variant, value)
		}
	}
}

// keyVariants returns the nested key spellings an underscore-separated name
// may stand for:
//
//	EXECUTION_FAILURE_POLICY -> execution_failure_policy, execution.failure.policy,
//	                            execution.failure_policy, execution_failure.policy
func keyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants,
			strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"),
			strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "."),
		)
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, s := range variants {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
