package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlayerProfile describes the player the match analysis is written for.
// It is injected into the analyzer prompts so the tactical advice matches
// the player's game.
type PlayerProfile struct {
	Handedness string `yaml:"handedness"`
	Backhand   string `yaml:"backhand"`
	NTRP       string `yaml:"ntrp"`
}

// DefaultPlayerProfile returns the profile used when no profile file is
// configured.
func DefaultPlayerProfile() PlayerProfile {
	return PlayerProfile{
		Handedness: "左手持拍 (Left-handed)",
		Backhand:   "单手反拍 (One-handed backhand)",
		NTRP:       "4.0",
	}
}

// LoadPlayerProfile reads a player profile from a YAML file. A missing file
// is not an error; the default profile is returned instead.
func LoadPlayerProfile(path string) (PlayerProfile, error) {
	if path == "" {
		return DefaultPlayerProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPlayerProfile(), nil
		}
		return DefaultPlayerProfile(), fmt.Errorf("reading player profile: %w", err)
	}
	profile := DefaultPlayerProfile()
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return DefaultPlayerProfile(), fmt.Errorf("parsing player profile: %w", err)
	}
	return profile, nil
}
