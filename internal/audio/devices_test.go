package audio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

var fakeInfos = []*portaudio.DeviceInfo{
	{Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 48000},
	{
		Name:                     "Built-in Output",
		MaxOutputChannels:        2,
		DefaultSampleRate:        44100,
		DefaultLowOutputLatency:  5 * time.Millisecond,
		DefaultHighOutputLatency: 20 * time.Millisecond,
		HostApi:                  &portaudio.HostApiInfo{Name: "Core Audio"},
	},
	{Name: "USB Interface", MaxInputChannels: 2, MaxOutputChannels: 4, DefaultSampleRate: 96000},
}

func withFakeDevices(t *testing.T, infos []*portaudio.DeviceInfo, err error) {
	t.Helper()
	origLib, origDefault := paLibDevicesFunc, paLibDefaultOutputDeviceFunc
	t.Cleanup(func() {
		paLibDevicesFunc, paLibDefaultOutputDeviceFunc = origLib, origDefault
	})
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return infos, err }
	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if len(infos) < 2 {
			return nil, fmt.Errorf("no default output")
		}
		return infos[1], nil
	}
}

func TestHostDevices(t *testing.T) {
	withFakeDevices(t, fakeInfos, nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != len(fakeInfos) {
		t.Fatalf("got %d devices, want %d", len(devices), len(fakeInfos))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.Name != fakeInfos[i].Name {
			t.Errorf("Device %d name = %q", i, d.Name)
		}
	}
	if devices[1].HostAPI != "Core Audio" || devices[1].HighLatency != 20*time.Millisecond {
		t.Errorf("Device 1 = %+v", devices[1])
	}
}

func TestOutputDevices(t *testing.T) {
	withFakeDevices(t, fakeInfos, nil)

	devices, err := OutputDevices()
	if err != nil {
		t.Fatalf("OutputDevices error: %v", err)
	}
	if len(devices) != 2 || devices[0].ID != 1 || devices[1].ID != 2 {
		t.Errorf("OutputDevices() = %+v, want IDs 1 and 2", devices)
	}
}

func TestOutputDevice(t *testing.T) {
	withFakeDevices(t, fakeInfos, nil)

	tests := []struct {
		name     string
		id       int
		wantName string
		substr   string
	}{
		{"Default device", -1, "Built-in Output", ""},
		{"Valid output device", 2, "USB Interface", ""},
		{"Negative ID", -2, "", "invalid device ID"},
		{"Too high ID", len(fakeInfos) + 10, "", "invalid device ID"},
		{"Non-output device", 0, "", "does not support output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := OutputDevice(tt.id)
			if tt.substr == "" {
				if err != nil {
					t.Fatalf("OutputDevice(%d) error: %v", tt.id, err)
				}
				if dev.Name != tt.wantName {
					t.Errorf("OutputDevice(%d) = %q, want %q", tt.id, dev.Name, tt.wantName)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error for ID %d", tt.id)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestOutputDevice_paDevicesError(t *testing.T) {
	withFakeDevices(t, nil, fmt.Errorf("mock error"))

	if _, err := OutputDevice(-1); err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
	if _, err := HostDevices(); err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestOutputDevice_noDefault(t *testing.T) {
	withFakeDevices(t, fakeInfos[:1], nil)

	if _, err := OutputDevice(-1); err == nil || !strings.Contains(err.Error(), "no default output device") {
		t.Errorf("expected default device error, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	withFakeDevices(t, fakeInfos, nil)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[1] Built-in Output", "[2] USB Interface", "Output channels: 4", "Low=5.00ms, High=20.00ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Microphone") {
		t.Errorf("input-only device listed:\n%s", out)
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
	if _, err := GetDevices(); err == nil {
		t.Error("GetDevices succeeded without PortAudio")
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
	withFakeDevices(t, nil, nil)

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

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil || !strings.Contains(buf.String(), "(none)") {
		t.Errorf("ListDevices with no devices = %q, %v", buf.String(), err)
	}
}
