// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials for evidence providers.
// Two sources are merged: a directory of plain-text files (the filename is
// the key name and the trimmed contents are the value) and an optional
// dotenv file. Request files reference them as {secret:NAME}.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store resolves secret names. Values from the secrets directory win over
// the dotenv file; the process environment is consulted last.
type Store struct {
	values map[string]string
	env    func(string) (string, bool)
}

// New returns a Store over the given values that falls back to the
// process environment.
func New(values map[string]string) *Store {
	if values == nil {
		values = map[string]string{}
	}
	return &Store{values: values, env: os.LookupEnv}
}

// Lookup returns the value for name. Names are matched exactly, then in
// their environment-variable spelling (api-key → API_KEY).
func (s *Store) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	if v, ok := s.values[name]; ok {
		return v, true
	}
	envName := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if v, ok := s.values[envName]; ok {
		return v, true
	}
	if s.env != nil {
		if v, ok := s.env(name); ok && v != "" {
			return v, true
		}
		if v, ok := s.env(envName); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Names returns the loaded secret names without their values.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	return names
}

// Open loads the secrets directory and the dotenv file into one Store.
// Either source may be absent.
func Open(dir, envFile string) (*Store, error) {
	values, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if envFile != "" {
		env, err := LoadEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		for k, v := range env {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}
	return New(values), nil
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnvFile parses a dotenv file without touching the process
// environment. A missing file is not an error. A file that cannot be parsed
// (for example one with a hyphenated key) is skipped with a warning, the
// same way Load treats an unreadable key file; keys must be UPPER_SNAKE.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading env file %s: %w", path, err)
		}
		log.Warn().Err(err).Str("file", path).Msg("could not parse env file, ignoring it")
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out, nil
}
