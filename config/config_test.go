package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultPortsPerTransport(t *testing.T) {
	if c := Default(TransportTCP); c.Port != DefaultTCPPort {
		t.Fatalf("TCP default port = %d, want %d", c.Port, DefaultTCPPort)
	}
	if c := Default(TransportTLS); c.Port != DefaultTLSPort {
		t.Fatalf("TLS default port = %d, want %d", c.Port, DefaultTLSPort)
	}
}

func TestValidateClampsInvalidKnobs(t *testing.T) {
	c := &ClientConfig{
		Transport:      TransportTCP,
		Port:           -1,
		RequestTimeout: -1,
		ConnectTimeout: -1,
		Retries:        -5,
		IdleTimeout:    -5,
		Pipelining:     PipeliningConfig{MaxInFlight: 999999},
	}
	c.Validate()

	if c.Port != DefaultTCPPort {
		t.Errorf("Port = %d, want %d", c.Port, DefaultTCPPort)
	}
	if c.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", c.RequestTimeout, DefaultRequestTimeout)
	}
	if c.Retries != DefaultRetries {
		t.Errorf("Retries = %d, want %d", c.Retries, DefaultRetries)
	}
	if c.Pipelining.MaxInFlight != MaxInFlightCeiling {
		t.Errorf("MaxInFlight = %d, want clamped to %d", c.Pipelining.MaxInFlight, MaxInFlightCeiling)
	}
}

func TestSerialTransportForcesPipeliningDisabled(t *testing.T) {
	c := Default(TransportRTU)
	c.Pipelining.MaxInFlight = 8
	c.Validate()
	if !c.Pipelining.Disabled || c.Pipelining.MaxInFlight != 1 {
		t.Fatalf("serial pipelining not forced to disabled/1: %+v", c.Pipelining)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")

	want := Default(TransportTCP)
	want.Host = "192.0.2.1"
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Host != want.Host || got.Port != want.Port {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestTLSConfigMinVersionFloor(t *testing.T) {
	tlsCfg := TLSConfig{}
	tlsCfg.normalize()
	if tlsCfg.MinVersion < 0x0303 { // tls.VersionTLS12
		t.Fatalf("MinVersion = %#x, want >= TLS 1.2", tlsCfg.MinVersion)
	}
}
