// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults (the pre-populated target struct)
//  2. YAML configuration file
//  3. Dotenv file, when present, read with the same names as the environment
//  4. Alias environment variables (e.g. PORT -> server.http.port)
//  5. Prefixed environment variables: ISPSTATUS_SERVER__HTTP__PORT -> server.http.port
//
// Environment values that look like JSON arrays are decoded into lists; a
// malformed array is a load error rather than a silently empty list.
package confloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "ISPSTATUS_"

// EnvLevelSeparator separates nesting levels in prefixed variable names.
// A single underscore stays part of the key, so ISPSTATUS_SECURITY__API_KEYS
// maps to security.api_keys.
const EnvLevelSeparator = "__"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	dotEnv    string
	aliases   map[string]string
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDotEnvFile reads environment-style assignments from path before the
// process environment. A missing file is skipped.
func WithDotEnvFile(path string) Option {
	return func(l *Loader) {
		l.dotEnv = path
	}
}

// WithEnvAliases maps unprefixed environment variable names to config keys.
// Aliases are applied before prefixed variables, which therefore win.
func WithEnvAliases(aliases map[string]string) Option {
	return func(l *Loader) {
		for name, key := range aliases {
			l.aliases[name] = key
		}
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		aliases:   make(map[string]string),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load loads the file and environment sources and unmarshals into target.
// Fields of target not present in any source keep their current values.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if l.dotEnv != "" {
		if err := l.LoadDotEnv(l.dotEnv); err != nil {
			return fmt.Errorf("load dotenv: %w", err)
		}
	}

	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadDotEnv loads a dotenv file. Names are mapped exactly like process
// environment variables: aliases first, then prefixed names.
func (l *Loader) LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	var errs []error
	alias, prefixed := l.envMappers(&errs)
	if len(l.aliases) > 0 {
		if err := l.k.Load(file.Provider(path), dotenv.ParserEnvWithValue("", ".", alias)); err != nil {
			return fmt.Errorf("load file %s: %w", path, err)
		}
	}
	if err := l.k.Load(file.Provider(path), dotenv.ParserEnvWithValue("", ".", prefixed)); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return errors.Join(errs...)
}

// LoadEnv loads alias variables and then prefixed variables.
func (l *Loader) LoadEnv() error {
	var errs []error
	alias, prefixed := l.envMappers(&errs)

	if len(l.aliases) > 0 {
		if err := l.k.Load(env.ProviderWithValue("", ".", alias), nil); err != nil {
			return err
		}
	}
	if err := l.k.Load(env.ProviderWithValue(l.envPrefix, ".", prefixed), nil); err != nil {
		return err
	}

	return errors.Join(errs...)
}

// envMappers returns the name-to-key callbacks for alias and prefixed
// variables. Decoding failures are appended to errs.
func (l *Loader) envMappers(errs *[]error) (alias, prefixed func(name, value string) (string, any)) {
	decode := func(name, key, value string) (string, any) {
		v, err := parseEnvValue(value)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
			return "", nil
		}
		return key, v
	}

	alias = func(name, value string) (string, any) {
		key, ok := l.aliases[name]
		if !ok {
			return "", nil
		}
		return decode(name, key, value)
	}
	prefixed = func(name, value string) (string, any) {
		if !strings.HasPrefix(name, l.envPrefix) {
			return "", nil
		}
		key := envKey(strings.TrimPrefix(name, l.envPrefix))
		if key == "" {
			return "", nil
		}
		return decode(name, key, value)
	}
	return alias, prefixed
}

// envKey converts SERVER__HTTP__PORT to server.http.port.
func envKey(s string) string {
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, strings.ToLower(EnvLevelSeparator), ".")
}

// parseEnvValue decodes JSON arrays and passes other values through as strings.
func parseEnvValue(value string) (any, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "[") {
		return value, nil
	}
	var list []any
	if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}
	return list, nil
}

// Unmarshal unmarshals the loaded configuration into the target struct
// using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}
