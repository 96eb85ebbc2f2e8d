package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := writeFile(t, "name: ansuz\nport: 8080\n")
	var cfg testConfig
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "ansuz" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CFG_NAME", "expanded")
	p := writeFile(t, "name: ${TEST_CFG_NAME}\n")
	var cfg testConfig
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "expanded" {
		t.Errorf("name = %q, want expanded", cfg.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestLoad_ValidatorCalled(t *testing.T) {
	p := writeFile(t, "port: 0\n")
	var cfg validatedConfig
	if err := Load(p, &cfg); err == nil {
		t.Error("validation failure should surface from Load")
	}
}

func TestLoadIfPresent_MissingFileIsFine(t *testing.T) {
	cfg := testConfig{Name: "default"}
	if err := LoadIfPresent(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatalf("LoadIfPresent() error = %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadIfPresent_ExistingFileLoaded(t *testing.T) {
	p := writeFile(t, "name: fromfile\n")
	var cfg testConfig
	if err := LoadIfPresent(p, &cfg); err != nil {
		t.Fatalf("LoadIfPresent() error = %v", err)
	}
	if cfg.Name != "fromfile" {
		t.Errorf("name = %q, want fromfile", cfg.Name)
	}
}
