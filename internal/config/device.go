package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultConfirmDelay   = 300 * time.Millisecond
)

// DefaultDevice is a handset with an earpiece and nothing attached.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		HasEarpiece:           true,
		BluetoothConfirmDelay: DefaultConfirmDelay,
		ConnectTimeout:        DefaultConnectTimeout,
	}
}

// LoadDeviceProfile reads a device profile:
//
//	[device]
//	has_earpiece = true
//	wired_headset_present = false
//	bluetooth_available = false
//	bluetooth_confirm_delay = 300ms
//
//	[bluetooth]
//	connect_timeout = 5s
func LoadDeviceProfile(path string) (DeviceConfig, error) {
	f, err := ini.Load(path)
	if err != nil {
		return DeviceConfig{}, fmt.Errorf("AUDIO_DEVICE_PROFILE: %w", err)
	}
	d, err := ParseDeviceProfile(f)
	if err != nil {
		return DeviceConfig{}, err
	}
	d.ProfilePath = path
	return d, nil
}

func ParseDeviceProfile(f *ini.File) (DeviceConfig, error) {
	d := DefaultDevice()

	sec := f.Section("device")
	d.HasEarpiece = sec.Key("has_earpiece").MustBool(d.HasEarpiece)
	d.WiredHeadsetPresent = sec.Key("wired_headset_present").MustBool(false)
	d.BluetoothAvailable = sec.Key("bluetooth_available").MustBool(false)
	d.BluetoothConfirmDelay = sec.Key("bluetooth_confirm_delay").MustDuration(d.BluetoothConfirmDelay)

	sec = f.Section("bluetooth")
	d.ConnectTimeout = sec.Key("connect_timeout").MustDuration(d.ConnectTimeout)

	if d.ConnectTimeout <= 0 {
		return DeviceConfig{}, fmt.Errorf("bluetooth.connect_timeout must be positive, got %s", d.ConnectTimeout)
	}
	return d, nil
}
