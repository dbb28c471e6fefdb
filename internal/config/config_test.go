package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/ini.v1"
)

func validConfig() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Device: DefaultDevice(),
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresIssuerAndAudience(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without JWT_ISSUER/JWT_AUDIENCE")
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := validConfig()
	c.Device.ConnectTimeout = 0
	c.Device.BluetoothConfirmDelay = 0
	c.Log.File = "/tmp/audiod.log"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Device.ConnectTimeout != DefaultConnectTimeout {
		t.Fatalf("expected default connect timeout, got %s", c.Device.ConnectTimeout)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl, got %s", c.Auth.AccessTokenTTL)
	}
	if c.Redis.Channel != "callaudio.events" || c.Log.MaxSizeMB != 100 {
		t.Fatalf("unexpected defaults: %+v %+v", c.Redis, c.Log)
	}
}

func TestValidate_ConfirmDelayMustBeatTimeout(t *testing.T) {
	c := validConfig()
	c.Device.BluetoothConfirmDelay = 10 * time.Second
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when the headset can never confirm in time")
	}
}

func TestParseDeviceProfile(t *testing.T) {
	f, err := ini.Load([]byte(`
[device]
has_earpiece = false
wired_headset_present = true
bluetooth_confirm_delay = 50ms

[bluetooth]
connect_timeout = 2s
`))
	if err != nil {
		t.Fatalf("ini: %v", err)
	}
	d, err := ParseDeviceProfile(f)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.HasEarpiece || !d.WiredHeadsetPresent || d.BluetoothAvailable {
		t.Fatalf("unexpected presence: %+v", d)
	}
	if d.BluetoothConfirmDelay != 50*time.Millisecond || d.ConnectTimeout != 2*time.Second {
		t.Fatalf("unexpected durations: %+v", d)
	}
}

func TestLoad_EnvOverridesProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.ini")
	if err := os.WriteFile(path, []byte("[device]\nbluetooth_available = true\n[bluetooth]\nconnect_timeout = 2s\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUDIO_DEVICE_PROFILE", path)
	t.Setenv("BT_CONNECT_TIMEOUT", "3s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Device.BluetoothAvailable || !c.Device.HasEarpiece {
		t.Fatalf("expected profile values, got %+v", c.Device)
	}
	if c.Device.ConnectTimeout != 3*time.Second {
		t.Fatalf("expected env override, got %s", c.Device.ConnectTimeout)
	}
	if c.Device.ProfilePath != path {
		t.Fatalf("expected profile path recorded")
	}
}

func TestLoad_BadPortAndProfile(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "http")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUDIO_DEVICE_PROFILE", filepath.Join(t.TempDir(), "missing.ini"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
