package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a numeric id: the millisecond timestamp in the high bits and
// 22 random bits in the low bits. Ids created later always sort higher, which
// keeps creation-time ordering cheap, and the random tail avoids collisions
// between concurrent writers.
func New() int64 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	r := int64(binary.BigEndian.Uint32(b[:])) & ((1 << 22) - 1)
	return time.Now().UnixMilli()<<22 | r
}

// NewULID generates a ULID string, used where a sortable unique string id is
// needed (e.g. JWT ids).
func NewULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
