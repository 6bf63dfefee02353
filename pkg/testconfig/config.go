// Package testconfig loads the settings shared by a project's route tests from mytested.yaml
// and the environment.
package testconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivaylokenov/mytested/internal/diagnostics"
	mverrors "github.com/ivaylokenov/mytested/internal/errors"
	"github.com/ivaylokenov/mytested/pkg/mvc"
)

const (
	// DefaultFileName is the configuration file looked up by the CLI
	DefaultFileName = "mytested.yaml"

	EnvControllerSuffix = "MYTESTED_CONTROLLER_SUFFIX"
	EnvLogLevel         = "MYTESTED_LOG_LEVEL"
)

// Config is the content of mytested.yaml
type Config struct {
	ControllerSuffix string        `yaml:"controllerSuffix"`
	LogLevel         string        `yaml:"logLevel"`
	Routes           []RouteConfig `yaml:"routes"`
}

// RouteConfig declares one conventional route
type RouteConfig struct {
	Name        string            `yaml:"name"`
	Template    string            `yaml:"template"`
	Area        string            `yaml:"area,omitempty"`
	Defaults    map[string]any    `yaml:"defaults,omitempty"`
	Constraints map[string]string `yaml:"constraints,omitempty"`
	DataTokens  map[string]any    `yaml:"dataTokens,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() Config {
	return Config{
		ControllerSuffix: mvc.DefaultControllerSuffix,
		LogLevel:         diagnostics.Silent.String(),
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, mverrors.WrapConfigurationError(path, "read", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, mverrors.Wrap(mverrors.ConfigurationErrorCode, "malformed configuration", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables found by lookup (os.LookupEnv
// when nil)
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvControllerSuffix); ok {
		c.ControllerSuffix = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = strings.TrimSpace(v)
	}
	return c
}

// Validate reports every problem in the configuration
func (c Config) Validate() error {
	errs := mverrors.NewMultipleErrors()
	if _, err := diagnostics.ParseLevel(c.LogLevel); err != nil {
		errs.Add(mverrors.Wrap(mverrors.ConfigurationErrorCode, fmt.Sprintf("logLevel: %v", err), err).
			WithSuggestion("Use one of silent, error, warn, info, verbose, debug"))
	}

	names := make(map[string]bool)
	for i, r := range c.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		if strings.TrimSpace(r.Name) == "" {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "%s: name is required", field))
		} else if names[strings.ToLower(r.Name)] {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "%s: duplicate route name '%s'", field, r.Name))
		}
		names[strings.ToLower(r.Name)] = true

		if strings.TrimSpace(r.Template) == "" {
			errs.Add(mverrors.Newf(mverrors.ConfigurationErrorCode, "%s: template is required", field))
		} else if _, err := mvc.ParseTemplate(r.Template); err != nil {
			errs.Add(mverrors.Wrap(mverrors.ConfigurationErrorCode, fmt.Sprintf("%s: %v", field, err), err))
		}
	}
	return errs.ErrOrNil()
}

// Options converts the settings into application options. Diagnostics go to w, or to
// stdout and stderr when w is nil.
func (c Config) Options(w io.Writer) []mvc.Option {
	opts := []mvc.Option{mvc.WithControllerSuffix(c.ControllerSuffix)}
	if level, err := diagnostics.ParseLevel(c.LogLevel); err != nil || level != diagnostics.Silent {
		opts = append(opts, mvc.WithDiagnostics(c.LogLevel, w))
	}
	return opts
}

// Apply registers the configured routes on app, or the default route when none are configured
func (c Config) Apply(app *mvc.Application) *mvc.Application {
	if len(c.Routes) == 0 {
		return app.MapDefaultRoute()
	}
	for _, r := range c.Routes {
		opts := []mvc.RouteOption{
			mvc.Defaults(r.Defaults),
			mvc.Constraints(r.Constraints),
			mvc.DataTokens(r.DataTokens),
		}
		if r.Area != "" {
			app.MapAreaRoute(r.Name, r.Area, r.Template, opts...)
		} else {
			app.MapRoute(r.Name, r.Template, opts...)
		}
	}
	return app
}

// NewApplication starts an application configured by c. Register controllers on the result
// and call Build.
func (c Config) NewApplication(w io.Writer, opts ...mvc.Option) *mvc.Application {
	return c.Apply(mvc.NewApplication(append(c.Options(w), opts...)...))
}
