// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

// The seams are swapped per test, so nothing here may run in parallel.

func fakeDeviceInfos() []*portaudio.DeviceInfo {
	return []*portaudio.DeviceInfo{
		{
			Name:                    "Mock Microphone",
			MaxInputChannels:        2,
			DefaultSampleRate:       48000,
			DefaultLowInputLatency:  5 * time.Millisecond,
			DefaultHighInputLatency: 20 * time.Millisecond,
		},
		{
			Name:                     "Mock Speakers",
			MaxOutputChannels:        2,
			DefaultSampleRate:        44000,
			DefaultLowOutputLatency:  8 * time.Millisecond,
			DefaultHighOutputLatency: 30 * time.Millisecond,
		},
		{
			Name:              "Mock Duplex",
			MaxInputChannels:  1,
			MaxOutputChannels: 2,
			DefaultSampleRate: 44100,
		},
	}
}

func withFakeDevices(t *testing.T) {
	t.Helper()
	orig := paDevicesFunc
	t.Cleanup(func() { paDevicesFunc = orig })
	infos := fakeDeviceInfos()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return infos, nil }
}

func TestHostDevices(t *testing.T) {
	withFakeDevices(t)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.Name == "" {
			t.Errorf("Device %d has empty name", i)
		}
		if d.DefaultSampleRate <= 0 {
			t.Errorf("Device %d has invalid sample rate: %f", i, d.DefaultSampleRate)
		}
	}
	if devices[0].DefaultLowInputLatency != 5*time.Millisecond {
		t.Errorf("input latency not carried over: %v", devices[0].DefaultLowInputLatency)
	}
	if devices[1].DefaultHighOutputLatency != 30*time.Millisecond {
		t.Errorf("output latency not carried over: %v", devices[1].DefaultHighOutputLatency)
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	withFakeDevices(t)

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Valid input device", 0, ""},
		{"Duplex device", 2, ""},
		{"Output-only device", 1, "does not support input"},
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", 13, "invalid device ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := InputDevice(tt.id)
			if tt.substr == "" {
				if err != nil {
					t.Fatalf("InputDevice(%d) error: %v", tt.id, err)
				}
				if dev.Name == "" {
					t.Error("input device has empty name")
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error for ID %d", tt.id)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestInputDevice_Default(t *testing.T) {
	withFakeDevices(t)

	orig := paLibDefaultInputDeviceFunc
	defer func() { paLibDefaultInputDeviceFunc = orig }()
	want := fakeDeviceInfos()[0]
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return want, nil
	}

	dev, err := InputDevice(-1)
	if err != nil {
		t.Fatalf("InputDevice(-1) error: %v", err)
	}
	if dev.Name != want.Name {
		t.Errorf("default device = %q, want %q", dev.Name, want.Name)
	}
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	orig := paLibDefaultInputDeviceFunc
	defer func() { paLibDefaultInputDeviceFunc = orig }()
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default input error")
	}

	_, err := InputDevice(-1)
	if err == nil || !strings.Contains(err.Error(), "mock default input error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestOutputDevice(t *testing.T) {
	withFakeDevices(t)

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Valid output device", 1, ""},
		{"Duplex device", 2, ""},
		{"Input-only device", 0, "does not support output"},
		{"Too high ID", 9, "invalid device ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OutputDevice(tt.id)
			if tt.substr == "" {
				if err != nil {
					t.Fatalf("OutputDevice(%d) error: %v", tt.id, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error for ID %d", tt.id)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestOutputDevice_Default(t *testing.T) {
	orig := paLibDefaultOutputDeviceFunc
	defer func() { paLibDefaultOutputDeviceFunc = orig }()
	want := fakeDeviceInfos()[1]
	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return want, nil
	}

	dev, err := OutputDevice(-1)
	if err != nil {
		t.Fatalf("OutputDevice(-1) error: %v", err)
	}
	if dev.Name != want.Name {
		t.Errorf("default device = %q, want %q", dev.Name, want.Name)
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestNilDevices(t *testing.T) {
	orig := paLibDevicesFunc
	defer func() { paLibDevicesFunc = orig }()
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, nil
	}

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil {
		t.Errorf("expected empty slice, got nil")
	}
	if len(devices) != 0 {
		t.Errorf("expected length 0, got %d", len(devices))
	}
}

func TestListDevices(t *testing.T) {
	withFakeDevices(t)

	if err := ListDevices(); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
}

func TestListDevices_Error(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("enumeration failed")
	}

	if err := ListDevices(); err == nil {
		t.Error("expected error from ListDevices")
	}
}
