// Package config holds the sign's persistent key/value settings and the
// runtime settings file loader.
package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/models"
)

// Keys of the persistent store
const (
	KeySSID        = "ssid"
	KeyPassword    = "password"
	KeyAPIKey      = "apikey"
	KeyStationName = "st_name"
	KeyStationID   = "st_id"
	KeyLine1Name   = "l1_name"
	KeyLine1Dir    = "l1_dir"
	KeyLine2Name   = "l2_name"
	KeyLine2Dir    = "l2_dir"
)

// Keys lists every key the store manages
var Keys = []string{
	KeySSID, KeyPassword, KeyAPIKey,
	KeyStationName, KeyStationID,
	KeyLine1Name, KeyLine1Dir, KeyLine2Name, KeyLine2Dir,
}

// KV is a flat string key/value backend
type KV interface {
	// Get returns "" for a missing key
	Get(key string) (string, error)
	// SetMany writes all pairs atomically
	SetMany(pairs map[string]string) error
	// Clear removes every key
	Clear() error
}

// Store exposes typed accessors over a KV backend. Read errors are logged and
// reported as empty values so callers treat them like missing configuration.
type Store struct {
	kv  KV
	log zerolog.Logger
}

// NewStore wraps a backend
func NewStore(kv KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

func (s *Store) get(key string) string {
	v, err := s.kv.Get(key)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("config read failed")
		return ""
	}
	return v
}

func (s *Store) set(pairs map[string]string) error {
	if err := s.kv.SetMany(pairs); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// HasWifiConfig reports whether an SSID is stored
func (s *Store) HasWifiConfig() bool {
	return s.get(KeySSID) != ""
}

// WifiSSID returns the stored network name
func (s *Store) WifiSSID() string {
	return s.get(KeySSID)
}

// WifiPassword returns the stored network password
func (s *Store) WifiPassword() string {
	return s.get(KeyPassword)
}

// SetWifiCredentials stores network name and password
func (s *Store) SetWifiCredentials(ssid, password string) error {
	if ssid == "" {
		return errors.New("ssid is required")
	}
	return s.set(map[string]string{KeySSID: ssid, KeyPassword: password})
}

// APIKey returns the upstream bearer token
func (s *Store) APIKey() string {
	return s.get(KeyAPIKey)
}

// SetAPIKey stores the upstream bearer token
func (s *Store) SetAPIKey(key string) error {
	return s.set(map[string]string{KeyAPIKey: key})
}

// Station returns the configured stop with the name shortened to the stop part
func (s *Store) Station() models.StationConfig {
	return models.StationConfig{
		Name: models.StationNameOnly(s.get(KeyStationName)),
		ID:   s.get(KeyStationID),
	}
}

// StationID returns the configured stop id
func (s *Store) StationID() string {
	return s.get(KeyStationID)
}

// SetStation stores the stop as returned by a search
func (s *Store) SetStation(st models.StationConfig) error {
	if st.ID == "" {
		return errors.New("station id is required")
	}
	return s.set(map[string]string{KeyStationName: st.Name, KeyStationID: st.ID})
}

// Line1 returns the first pinned line
func (s *Store) Line1() models.LineConfig {
	return models.LineConfig{Name: s.get(KeyLine1Name), Direction: s.get(KeyLine1Dir)}
}

// Line2 returns the second pinned line
func (s *Store) Line2() models.LineConfig {
	return models.LineConfig{Name: s.get(KeyLine2Name), Direction: s.get(KeyLine2Dir)}
}

// SetLines stores both pinned lines
func (s *Store) SetLines(l1, l2 models.LineConfig) error {
	return s.set(map[string]string{
		KeyLine1Name: l1.Name, KeyLine1Dir: l1.Direction,
		KeyLine2Name: l2.Name, KeyLine2Dir: l2.Direction,
	})
}

// Snapshot returns every key; the password and API key are masked
func (s *Store) Snapshot() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v := s.get(k)
		if (k == KeyPassword || k == KeyAPIKey) && v != "" {
			v = Mask(v)
		}
		out[k] = v
	}
	return out
}

// ResetToFactory erases every stored value
func (s *Store) ResetToFactory() error {
	if err := s.kv.Clear(); err != nil {
		return fmt.Errorf("failed to reset config: %w", err)
	}
	s.log.Warn().Msg("configuration reset to factory defaults")
	return nil
}

// Mask keeps the last four characters of a secret
func Mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
