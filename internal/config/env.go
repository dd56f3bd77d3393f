package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Propagate copies each key present in rec into the process environment.
// Keys absent from rec are left untouched; detecting them is the job of
// Require at the point of use.
func Propagate(rec Record, keys []string) error {
	for _, k := range keys {
		v, ok := rec.Get(k)
		if !ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("setenv %s: %w", k, err)
		}
	}
	return nil
}

// WriteEnvFile writes the present keys of rec to a dotenv file so a worker
// started outside this process tree can load the same values.
func WriteEnvFile(path string, rec Record, keys []string) error {
	m := map[string]string{}
	for _, k := range keys {
		if v, ok := rec.Get(k); ok {
			m[k] = v
		}
	}
	if err := godotenv.Write(m, path); err != nil {
		return fmt.Errorf("write env file %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile loads a dotenv file into the environment. Variables that are
// already set win over the file.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: load env file %s: %v", ErrConfigMissing, path, err)
	}
	return nil
}

// Require reads keys from the environment and fails with
// ErrPreconditionFailed naming every key that is unset or empty.
func Require(keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			missing = append(missing, k)
			continue
		}
		out[k] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required environment variables: %s", ErrPreconditionFailed, strings.Join(missing, ", "))
	}
	return out, nil
}

// Values are the settings a scenario needs from the environment.
type Values struct {
	AppURL        string
	User          string
	Password      string
	UniqueContext string
	LogFile       string
}

// FromEnv returns Values for a scenario, or ErrPreconditionFailed when any
// required key is missing.
func FromEnv() (Values, error) {
	m, err := Require(RequiredKeys...)
	if err != nil {
		return Values{}, err
	}
	return Values{
		AppURL:        m[KeyAppURL],
		User:          m[KeyUser],
		Password:      m[KeyPassword],
		UniqueContext: m[KeyUniqueContext],
		LogFile:       LogFile(),
	}, nil
}

// LogFile returns E2E_LOG_FILE from the environment, or DefaultLogFile.
func LogFile() string {
	if v := os.Getenv(KeyLogFile); v != "" {
		return v
	}
	return DefaultLogFile
}
