package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.hubtalk/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
}

// Profile represents one portal account, stored per profile as profile.toml.
type Profile struct {
	// APIBaseURL is the root of the portal's employment REST service.
	APIBaseURL string `toml:"api_base_url"`
	// PushURL is the websocket endpoint for per-participant message events.
	PushURL string `toml:"push_url"`
	// ParticipantID is the viewer's portal identity (candidate or employer).
	ParticipantID string `toml:"participant_id"`
	// ParticipantRole is "candidate" or "employer".
	ParticipantRole string `toml:"participant_role"`
	// APIToken is the bearer token used on every backend call.
	APIToken string `toml:"api_token"`
}

// Validate checks that all fields required to reach the portal are set.
func (p *Profile) Validate() error {
	switch {
	case p.APIBaseURL == "":
		return errors.New("profile: api_base_url is required")
	case p.ParticipantID == "":
		return errors.New("profile: participant_id is required")
	case p.APIToken == "":
		return errors.New("profile: api_token is required")
	case p.ParticipantRole != "candidate" && p.ParticipantRole != "employer":
		return errors.New(`profile: participant_role must be "candidate" or "employer"`)
	}
	return nil
}

// Load reads the global config from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	return write(path, cfg)
}

// LoadProfile reads a profile settings file.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	_, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile writes a profile settings file with restrictive permissions
// (it contains the API token).
func SaveProfile(path string, p *Profile) error {
	return write(path, p)
}

func write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
