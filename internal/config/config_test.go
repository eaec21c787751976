package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("CAMPUSFIX_STATE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:8000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.TokenStore != StoreFile {
		t.Errorf("TokenStore = %q", cfg.TokenStore)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAMPUSFIX_API_URL", "https://fix.example.edu/api/")
	t.Setenv("CAMPUSFIX_TIMEOUT", "5s")
	t.Setenv("CAMPUSFIX_TOKEN_STORE", "sqlite")
	t.Setenv("CAMPUSFIX_STATE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "https://fix.example.edu/api" {
		t.Errorf("BaseURL() = %q", cfg.BaseURL())
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.TokenStore != StoreSQLite {
		t.Errorf("TokenStore = %q", cfg.TokenStore)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr bool
	}{
		{"defaults", func(*ClientConfig) {}, false},
		{"bad scheme", func(c *ClientConfig) { c.APIURL = "ftp://x/api" }, true},
		{"no host", func(c *ClientConfig) { c.APIURL = "http:///api" }, true},
		{"unknown store", func(c *ClientConfig) { c.TokenStore = "etcd" }, true},
		{"zero timeout", func(c *ClientConfig) { c.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
