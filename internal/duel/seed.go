package duel

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	roomIDMin = 100000
	roomIDMax = 999999
	// maxRoomIDAttempts bounds the collision-retry loop in the registry.
	maxRoomIDAttempts = 64
)

// DeriveSeed mixes two participant identities and a timestamp into a positive
// 31-bit seed. Clients feed it to their local PRNG to draw the same questions.
func DeriveSeed(a, b string, at time.Time) int64 {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(a))
	h.Write([]byte{'|'})
	h.Write([]byte(b))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(at.UnixNano(), 10)))
	sum := h.Sum(nil)
	seed := int64(binary.BigEndian.Uint64(sum[:8]) & 0x7fffffff)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// IDGenerator returns candidate room ids; the registry retries on collision.
type IDGenerator func() string

// RandomRoomID yields a 6-digit numeric room id without a leading zero.
func RandomRoomID() string {
	n := roomIDMin + rand.IntN(roomIDMax-roomIDMin+1)
	return fmt.Sprintf("%06d", n)
}
