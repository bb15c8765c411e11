package descriptor

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		desc CommandDescriptor
	}{
		{"safe command", CommandDescriptor{
			Version:  Version,
			NameHash: NameHash32("ls"),
			Flags:    FlagSet{Risk: RiskSafe},
			ExecMs:   50,
			MemoryMB: 5,
			OutputKB: 10,
			NameLen:  2,
		}},
		{"critical destructive", CommandDescriptor{
			Version:  Version,
			NameHash: NameHash32("rm"),
			Flags:    FlagSet{Risk: RiskCritical, Caps: CapDestructive | CapFileMod},
			ExecMs:   200,
			MemoryMB: 10,
			OutputKB: 1,
			NameLen:  2,
		}},
		{"all capabilities", CommandDescriptor{
			Version:  Version,
			NameHash: NameHash32("mount"),
			Flags:    FlagSet{Risk: RiskHigh, Caps: CapRootRequired | CapDestructive | CapNetwork | CapFileMod | CapSystemMod},
			ExecMs:   1000,
			MemoryMB: 100,
			OutputKB: 500,
			NameLen:  5,
		}},
	}

	for _, tt := range tests {
		buf := tt.desc.Encode()
		got, err := Decode(buf[:])
		if err != nil {
			t.Errorf("%s: decode failed: %v", tt.name, err)
			continue
		}
		if got != tt.desc {
			t.Errorf("%s: round trip mismatch:\n got %+v\nwant %+v", tt.name, got, tt.desc)
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	d := CommandDescriptor{
		Version:  Version,
		NameHash: NameHash32("git"),
		Flags:    FlagSet{Risk: RiskSafe},
		ExecMs:   100,
	}
	first := d.Encode()
	for i := 0; i < 10; i++ {
		if d.Encode() != first {
			t.Fatal("encoding the same descriptor produced different bytes")
		}
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	d := CommandDescriptor{Version: Version, NameHash: 42, Flags: FlagSet{Risk: RiskLow}}
	buf := d.Encode()
	buf[10] ^= 0xFF // corrupt the exec-time field

	_, err := Decode(buf[:])
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestDecode_BadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", make([]byte, 10)},
		{"long", make([]byte, 32)},
		{"bad magic", func() []byte {
			d := CommandDescriptor{Version: Version, Flags: FlagSet{Risk: RiskSafe}}
			buf := d.Encode()
			buf[0] = 0x00
			return buf[:]
		}()},
	}

	for _, tt := range tests {
		if _, err := Decode(tt.data); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}

func TestDecode_RejectsMultipleRiskBits(t *testing.T) {
	d := CommandDescriptor{Version: Version, Flags: FlagSet{Risk: RiskSafe}}
	buf := d.Encode()
	// Set a second risk bit and restamp the checksum so only the flag
	// invariant can fail.
	flags := binary.BigEndian.Uint32(buf[6:10])
	binary.BigEndian.PutUint32(buf[6:10], flags|1<<3)
	binary.BigEndian.PutUint16(buf[22:24], Checksum(buf[:22]))

	if _, err := Decode(buf[:]); err == nil {
		t.Error("expected error for two risk bits, got nil")
	}
}

func TestDecodeFlags(t *testing.T) {
	tests := []struct {
		name    string
		bits    uint32
		want    FlagSet
		wantErr bool
	}{
		{"safe no caps", 1 << 0, FlagSet{Risk: RiskSafe}, false},
		{"critical destructive", 1<<4 | uint32(CapDestructive), FlagSet{Risk: RiskCritical, Caps: CapDestructive}, false},
		{"no risk bit", uint32(CapNetwork), FlagSet{}, true},
		{"two risk bits", 1<<0 | 1<<4, FlagSet{}, true},
		{"unknown bit", 1<<0 | 1<<20, FlagSet{}, true},
	}

	for _, tt := range tests {
		got, err := DecodeFlags(tt.bits)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %+v", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestFlagSet_EncodeDecodeRoundTrip(t *testing.T) {
	caps := []Capability{0, CapRootRequired, CapDestructive | CapSystemMod, capMask}
	for risk := RiskSafe; risk <= RiskCritical; risk++ {
		for _, c := range caps {
			fs := FlagSet{Risk: risk, Caps: c}
			got, err := DecodeFlags(fs.Encode())
			if err != nil {
				t.Fatalf("risk=%s caps=%s: %v", risk, c, err)
			}
			if got != fs {
				t.Errorf("risk=%s caps=%s: got %+v", risk, c, got)
			}
		}
	}
}

func TestDefaultDecision(t *testing.T) {
	tests := []struct {
		risk RiskLevel
		want Decision
	}{
		{RiskSafe, DecisionApproved},
		{RiskLow, DecisionApproved},
		{RiskMedium, DecisionCautionMode},
		{RiskHigh, DecisionRequireApproval},
		{RiskCritical, DecisionReject},
	}
	for _, tt := range tests {
		if got := DefaultDecision(tt.risk); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.risk, got, tt.want)
		}
	}
}

func TestMostRestrictive(t *testing.T) {
	tests := []struct {
		a, b, want Decision
	}{
		{DecisionApproved, DecisionReject, DecisionReject},
		{DecisionReject, DecisionApproved, DecisionReject},
		{DecisionCautionMode, DecisionRequireApproval, DecisionRequireApproval},
		{DecisionApproved, DecisionApproved, DecisionApproved},
	}
	for _, tt := range tests {
		if got := MostRestrictive(tt.a, tt.b); got != tt.want {
			t.Errorf("MostRestrictive(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestChecksum_KnownVector(t *testing.T) {
	// CRC16/CCITT-FALSE check value for "123456789".
	if got := Checksum([]byte("123456789")); got != 0x29B1 {
		t.Errorf("Checksum(123456789) = %#04x, want 0x29b1", got)
	}
}
