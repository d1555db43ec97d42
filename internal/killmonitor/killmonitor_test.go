package killmonitor

import (
	"bytes"
	"testing"
)

func TestHandleOneAlive(t *testing.T) {
	resp, action := handleOne([]byte("alive?" + string(make([]byte, payloadBytes-6))))
	if resp != "not dead" {
		t.Fatalf("resp = %q, want %q", resp, "not dead")
	}
	if action != ActionNone {
		t.Fatalf("action = %v, want ActionNone", action)
	}
}

func TestHandleOneHalt(t *testing.T) {
	_, action := handleOne([]byte("halt"))
	if action != ActionHalt {
		t.Fatalf("action = %v, want ActionHalt", action)
	}
}

func TestHandleOneReboot(t *testing.T) {
	_, action := handleOne([]byte("reboot"))
	if action != ActionReboot {
		t.Fatalf("action = %v, want ActionReboot", action)
	}
}

func TestHandleOneUnknown(t *testing.T) {
	resp, action := handleOne([]byte("nonsense"))
	if action != ActionNone {
		t.Fatalf("action = %v, want ActionNone", action)
	}
	if resp != "unknown command" {
		t.Fatalf("resp = %q, want %q", resp, "unknown command")
	}
}

func TestReadWritePacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writePacket(&buf, "not dead"); err != nil {
		t.Fatalf("writePacket: %v", err)
	}
	if buf.Len() != packetBytes {
		t.Fatalf("encoded length = %d, want %d", buf.Len(), packetBytes)
	}
	version, payload, err := readPacket(&buf)
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	if version != ProtocolVersion {
		t.Fatalf("version = %q, want %q", version, ProtocolVersion)
	}
	if trimPayload(payload) != "not dead" {
		t.Fatalf("payload = %q, want %q", trimPayload(payload), "not dead")
	}
}

type fakeRunner struct {
	halted, rebooted bool
}

func (f *fakeRunner) Halt() error   { f.halted = true; return nil }
func (f *fakeRunner) Reboot() error { f.rebooted = true; return nil }
