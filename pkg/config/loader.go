package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Option tunes a single Load call.
type Option func(*options)

type options struct {
	files       []string
	prefix      string
	environment map[string]string
}

// WithEnvFiles reads the given .env files instead of the default ".env".
// Unlike the default file, explicitly listed files must exist.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
	}
}

// WithPrefix prepends prefix to every variable name, e.g. "TEST_" turns MFA_ISSUER
// into TEST_MFA_ISSUER.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnvironment parses vars instead of the process environment. Mostly for tests.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) {
		o.environment = vars
	}
}

// Load fills v from environment variables using its `env` and `envDefault` tags.
// Values from .env files only apply to variables that are not already set, so the
// real environment always wins.
//
//	var cfg mfa.Config
//	if err := config.Load(&cfg, config.WithEnvFiles("deploy/.env")); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	vars, err := o.resolve()
	if err != nil {
		return err
	}

	if err := env.ParseWithOptions(v, env.Options{
		Environment: vars,
		Prefix:      o.prefix,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// resolve merges the base environment with .env file values.
func (o *options) resolve() (map[string]string, error) {
	vars := o.environment
	if vars == nil {
		vars = env.ToMap(os.Environ())
	}

	files := o.files
	optional := len(files) == 0
	if optional {
		files = []string{defaultEnvFile}
	}

	merged := make(map[string]string, len(vars))
	for k, val := range vars {
		merged[k] = val
	}

	for _, path := range files {
		fileVars, err := godotenv.Read(path)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", path, err))
		}
		for k, val := range fileVars {
			if _, set := merged[k]; !set {
				merged[k] = val
			}
		}
	}

	return merged, nil
}
