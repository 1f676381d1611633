package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPlayerProfile_EmptyPathYieldsDefault(t *testing.T) {
	profile, err := LoadPlayerProfile("")
	if err != nil {
		t.Fatalf("loading default profile: %v", err)
	}
	if profile != DefaultPlayerProfile() {
		t.Errorf("expected the default profile, got %+v", profile)
	}
}

func TestLoadPlayerProfile_MissingFileYieldsDefault(t *testing.T) {
	profile, err := LoadPlayerProfile(filepath.Join(t.TempDir(), "profile.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if profile.NTRP != "4.0" {
		t.Errorf("NTRP = %q, want default 4.0", profile.NTRP)
	}
}

func TestLoadPlayerProfile_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `handedness: 右手持拍 (Right-handed)
ntrp: "4.5"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	profile, err := LoadPlayerProfile(path)
	if err != nil {
		t.Fatalf("loading profile: %v", err)
	}
	if profile.Handedness != "右手持拍 (Right-handed)" {
		t.Errorf("Handedness = %q, want the file value", profile.Handedness)
	}
	if profile.NTRP != "4.5" {
		t.Errorf("NTRP = %q, want 4.5", profile.NTRP)
	}
	// Absent keys keep their defaults.
	if profile.Backhand != DefaultPlayerProfile().Backhand {
		t.Errorf("Backhand = %q, want the default", profile.Backhand)
	}
}

func TestLoadPlayerProfile_MalformedFileYieldsDefaultAndError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("handedness: [unclosed"), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	profile, err := LoadPlayerProfile(path)
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
	if profile != DefaultPlayerProfile() {
		t.Errorf("expected the default profile on parse failure, got %+v", profile)
	}
}
