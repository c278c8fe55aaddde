package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credential names the tools look up at startup.
const (
	WeatherAPIKey   = "WEATHERMAP_API_KEY"
	AbuseIPDBAPIKey = "ABUSEIPDB_API_KEY"
	SlackAPIKey     = "SLACK_API_KEY"
	TelegramToken   = "TELEGRAM_BOT_TOKEN"
)

// ErrNotFound is returned when a credential is not found.
var ErrNotFound = errors.New("secret not found")

// Store resolves tool credentials: environment first, then an optional
// KEY=VALUE file (one entry per line, "#" comments allowed). Keys are never
// written to the config file.
type Store struct {
	path string // optional; "" means env-only
}

// NewStore returns a credential store reading from the environment and, when
// path is non-empty, the given file.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the credential for the given name. Returns ErrNotFound when the
// name is present in neither the environment nor the file.
func (s *Store) Get(name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	if s.path == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("secrets: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) == name {
			return strings.Trim(strings.TrimSpace(value), `"`), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("secrets: %w", err)
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Lookup is like Get but reports absence with a bool instead of an error.
func (s *Store) Lookup(name string) (string, bool) {
	v, err := s.Get(name)
	if err != nil {
		return "", false
	}
	return v, true
}
