package ident

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UUID is a canonical lowercase hyphenated UUID string.
type UUID string

// derived identifiers carry these fixed bytes after the timestamp: version 7,
// zero counter, RFC variant, zero random tail. This is the smallest valid
// version 7 value for its millisecond.
var derivedTail = [10]byte{0x70, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// New generates a new random version 7 identifier.
//
// Values generated by one process are monotonic even within a millisecond.
// Panics if the random source fails (should never happen in practice).
func New() UUID {
	return UUID(uuid.Must(uuid.NewV7()).String())
}

// FromInstant derives the identifier for the millisecond containing t.
//
// The result is stable: same millisecond, same identifier. Because the low
// bits are the minimum possible, the result sorts before or equal to every
// identifier created during that millisecond.
func FromInstant(t time.Time) UUID {
	var u uuid.UUID

	var ms [8]byte
	binary.BigEndian.PutUint64(ms[:], uint64(t.UnixMilli())&0xFFFF_FFFF_FFFF)
	copy(u[0:6], ms[2:8])
	copy(u[6:16], derivedTail[:])

	return UUID(u.String())
}

// Parse validates s and returns it in canonical form.
func Parse(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return UUID(u.String()), nil
}

// IsV7 returns whether s is a valid version 7 UUID.
func IsV7(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.Version() == 7
}

// IsDerived returns whether s was produced by FromInstant rather than New.
func IsDerived(s string) bool {
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	for i, b := range derivedTail {
		if u[6+i] != b {
			return false
		}
	}
	return true
}

// TimeOf extracts the millisecond timestamp embedded in a version 7 identifier.
func TimeOf(s UUID) (time.Time, error) {
	u, err := uuid.Parse(string(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("uuid %q is version %d, not 7", s, u.Version())
	}

	var ms [8]byte
	copy(ms[2:8], u[0:6])
	return time.UnixMilli(int64(binary.BigEndian.Uint64(ms[:]))).UTC(), nil
}

// String implements fmt.Stringer.
func (u UUID) String() string {
	return string(u)
}

// Shard returns the last hex digit of the identifier, used to spread writes
// for one owner across sixteen partitions.
func (u UUID) Shard() string {
	if len(u) == 0 {
		return ""
	}
	return string(u[len(u)-1])
}
