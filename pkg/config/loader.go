package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*options)

type options struct {
	envFiles    []string
	prefix      string
	environment map[string]string
}

// WithEnvFiles replaces the dotenv files read before parsing. Missing files are
// not an error. Defaults to ".env".
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithPrefix prepends prefix to every env tag of the target struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses from the given map instead of the process
// environment. Dotenv files are skipped.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environment = vars }
}

var dotenvLoaded sync.Map

// Load parses environment variables into v according to its env struct tags.
//
//	type Config struct {
//		ConsumerKey string `env:"TWITTER_CONSUMER_KEY,required"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := options{envFiles: []string{".env"}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.environment == nil {
		if err := loadDotenv(o.envFiles); err != nil {
			return err
		}
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environment != nil {
		envOpts.Environment = o.environment
	}
	if err := env.ParseWithOptions(v, envOpts); err != nil {
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

// loadDotenv reads each file once per process. Existing variables win.
func loadDotenv(files []string) error {
	for _, f := range files {
		if _, done := dotenvLoaded.LoadOrStore(f, struct{}{}); done {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			dotenvLoaded.Delete(f)
			return errors.Join(ErrReadingEnvFile, fmt.Errorf("%s: %w", f, err))
		}
	}
	return nil
}
