// Package descriptor defines the fixed-layout binary record that encodes a
// command's risk classification, capabilities, and performance estimate, plus
// the risk/decision vocabulary shared by every other component.
//
// Wire layout (24 bytes, big-endian multi-byte fields):
//
//	offset  size  field
//	0       1     magic (0xD5)
//	1       1     version
//	2       4     FNV-32a hash of the command name (identity only, not security)
//	6       4     security flags (one-hot risk bits 0-4, capability bits 8-12)
//	10      4     exec-time estimate, milliseconds
//	14      2     memory estimate, MB
//	16      4     output estimate, KB
//	20      2     command name length (reserved)
//	22      2     CRC16/CCITT-FALSE over bytes 0-21
package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
)

const (
	// Magic tags the first byte of a standalone command descriptor.
	Magic = 0xD5
	// Version is the current descriptor layout version.
	Version = 0x01
	// Size is the encoded size of a CommandDescriptor in bytes.
	Size = 24
)

// ErrChecksum is returned when a descriptor's CRC16 does not match its
// contents. Callers discard the record and re-derive it locally.
var ErrChecksum = errors.New("descriptor checksum mismatch")

// CommandDescriptor is the decoded form of the 24-byte record. Deriving a
// descriptor is a pure function of the command name: the same name always
// yields byte-identical output.
type CommandDescriptor struct {
	Version  uint8
	NameHash uint32
	Flags    FlagSet
	ExecMs   uint32
	MemoryMB uint16
	OutputKB uint32
	NameLen  uint16
}

// NameHash32 returns the FNV-32a hash of a command name. It identifies the
// command inside the descriptor; it carries no security meaning.
func NameHash32(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

// Encode packs the descriptor into its 24-byte wire form and stamps the
// checksum.
func (d CommandDescriptor) Encode() [Size]byte {
	var buf [Size]byte
	buf[0] = Magic
	buf[1] = d.Version
	binary.BigEndian.PutUint32(buf[2:6], d.NameHash)
	binary.BigEndian.PutUint32(buf[6:10], d.Flags.Encode())
	binary.BigEndian.PutUint32(buf[10:14], d.ExecMs)
	binary.BigEndian.PutUint16(buf[14:16], d.MemoryMB)
	binary.BigEndian.PutUint32(buf[16:20], d.OutputKB)
	binary.BigEndian.PutUint16(buf[20:22], d.NameLen)
	binary.BigEndian.PutUint16(buf[22:24], Checksum(buf[:22]))
	return buf
}

// Decode unpacks a 24-byte record, verifying magic, length, flag invariants,
// and checksum. It is the injective inverse of Encode for all valid records.
func Decode(data []byte) (CommandDescriptor, error) {
	if len(data) != Size {
		return CommandDescriptor{}, fmt.Errorf("descriptor: expected %d bytes, got %d", Size, len(data))
	}
	if data[0] != Magic {
		return CommandDescriptor{}, fmt.Errorf("descriptor: bad magic %#02x", data[0])
	}
	if got, want := binary.BigEndian.Uint16(data[22:24]), Checksum(data[:22]); got != want {
		return CommandDescriptor{}, fmt.Errorf("%w: got %#04x, want %#04x", ErrChecksum, got, want)
	}
	flags, err := DecodeFlags(binary.BigEndian.Uint32(data[6:10]))
	if err != nil {
		return CommandDescriptor{}, err
	}
	return CommandDescriptor{
		Version:  data[1],
		NameHash: binary.BigEndian.Uint32(data[2:6]),
		Flags:    flags,
		ExecMs:   binary.BigEndian.Uint32(data[10:14]),
		MemoryMB: binary.BigEndian.Uint16(data[14:16]),
		OutputKB: binary.BigEndian.Uint32(data[16:20]),
		NameLen:  binary.BigEndian.Uint16(data[20:22]),
	}, nil
}
