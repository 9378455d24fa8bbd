// Package config loads logmerge settings from flags, environment and an optional YAML file.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"logmerge/pkg/bundle"
	"logmerge/pkg/fetch"
)

// EnvPrefix prefixes environment overrides, e.g. LOGMERGE_WORKDIR or LOGMERGE_FETCH_REMOTE_DIR.
const EnvPrefix = "LOGMERGE"

// Keys understood by Load.
const (
	KeyWorkDir        = "workdir"
	KeyLocator        = "locator"
	KeySuffix         = "suffix"
	KeyOutput         = "output"
	KeyFilter         = "filter"
	KeySeparator      = "separator"
	KeySort           = "sort"
	KeyIncludeLocator = "include_locator"
	KeyPurge          = "purge"
	KeyWorkers        = "workers"
	KeyReport         = "report"
	KeyTree           = "tree"
	KeyDebug          = "debug"
	KeyFetchTool      = "fetch.tool"
	KeyFetchRemoteDir = "fetch.remote_dir"
	KeyFetchRetry     = "fetch.retry_max_elapsed"
)

// Config holds the resolved settings of one invocation.
type Config struct {
	WorkDir        string
	Locator        string
	Suffix         string
	Output         string
	Filter         string
	Separator      string
	Sort           bool
	IncludeLocator bool
	Purge          bool
	Workers        int
	Report         string
	Tree           bool
	Debug          bool
	Fetch          Fetch
}

// Fetch configures the device pull collaborator.
type Fetch struct {
	Tool            string
	RemoteDir       string
	RetryMaxElapsed time.Duration
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyWorkDir, bundle.DefaultWorkDir)
	v.SetDefault(KeyLocator, bundle.DefaultLocatorName)
	v.SetDefault(KeySuffix, bundle.DefaultOutputSuffix)
	v.SetDefault(KeyOutput, "")
	v.SetDefault(KeyFilter, "")
	v.SetDefault(KeySeparator, "")
	v.SetDefault(KeySort, false)
	v.SetDefault(KeyIncludeLocator, false)
	v.SetDefault(KeyPurge, false)
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyReport, "")
	v.SetDefault(KeyTree, false)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyFetchTool, fetch.DefaultTool)
	v.SetDefault(KeyFetchRemoteDir, fetch.DefaultRemoteDir)
	v.SetDefault(KeyFetchRetry, fetch.DefaultMaxElapsed)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// flagKeys maps flag names that do not follow the dash-to-underscore rule.
var flagKeys = map[string]string{
	"tool":              KeyFetchTool,
	"remote-dir":        KeyFetchRemoteDir,
	"retry-max-elapsed": KeyFetchRetry,
}

// BindFlags binds every flag in flags onto its config key.
// Flag names use dashes where keys use underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", "_")
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Wrapf(err, errors.CodeInvalidConfig, "bind flag %s", f.Name)
		}
	})
	return bindErr
}

// Load reads the config file, if any, and returns the resolved settings.
// With an empty path, ./logmerge.yaml and $HOME/.config/logmerge/logmerge.yaml
// are tried; their absence is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("logmerge")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "logmerge"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "read config")
		}
	}

	cfg := &Config{
		WorkDir:        v.GetString(KeyWorkDir),
		Locator:        v.GetString(KeyLocator),
		Suffix:         v.GetString(KeySuffix),
		Output:         v.GetString(KeyOutput),
		Filter:         v.GetString(KeyFilter),
		Separator:      v.GetString(KeySeparator),
		Sort:           v.GetBool(KeySort),
		IncludeLocator: v.GetBool(KeyIncludeLocator),
		Purge:          v.GetBool(KeyPurge),
		Workers:        v.GetInt(KeyWorkers),
		Report:         v.GetString(KeyReport),
		Tree:           v.GetBool(KeyTree),
		Debug:          v.GetBool(KeyDebug),
		Fetch: Fetch{
			Tool:            v.GetString(KeyFetchTool),
			RemoteDir:       v.GetString(KeyFetchRemoteDir),
			RetryMaxElapsed: v.GetDuration(KeyFetchRetry),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return errors.New(errors.CodeInvalidConfig, "workdir must not be empty")
	}
	if strings.TrimSpace(c.Locator) == "" || strings.ContainsAny(c.Locator, `/\`) {
		return errors.Newf(errors.CodeInvalidConfig, "locator must be a plain file name, got %q", c.Locator)
	}
	if c.Workers < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "workers must not be negative, got %d", c.Workers)
	}
	if c.Fetch.RetryMaxElapsed < 0 {
		return errors.Newf(errors.CodeInvalidConfig, "fetch.retry_max_elapsed must not be negative, got %s", c.Fetch.RetryMaxElapsed)
	}
	return nil
}

// PipelineOptions translates the settings into pipeline options.
func (c *Config) PipelineOptions() []bundle.Option {
	return []bundle.Option{
		bundle.WithWorkDir(c.WorkDir),
		bundle.WithLocatorName(c.Locator),
		bundle.WithOutputSuffix(c.Suffix),
		bundle.WithOutputName(c.Output),
		bundle.WithFilter(c.Filter),
		bundle.WithSeparator(unescape(c.Separator)),
		bundle.WithSortedFallback(c.Sort),
		bundle.WithIncludeLocator(c.IncludeLocator),
		bundle.WithPurge(c.Purge),
		bundle.WithWorkers(c.Workers),
	}
}

// unescape expands \n, \t and \\ so separators can be given on the command line.
func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`).Replace(s)
}
