package ident

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const (
	numWords = 4
	// MaxLength is the longest name an identifier can hold.
	MaxLength = numWords * 8
)

var (
	// ErrNameTooLong is returned when a name does not fit into MaxLength bytes.
	ErrNameTooLong = errors.New("identifier name too long")
	// ErrNameHasNUL is returned for names containing a zero byte, which is
	// the padding byte and would not survive Name.
	ErrNameHasNUL = errors.New("identifier name contains NUL byte")
)

// Identifier is an immutable 32-byte key. The name bytes are packed
// big-endian into four 64-bit words, so comparing words orders identifiers
// the same way as their names.
type Identifier struct {
	w [numWords]uint64
}

// New packs name into an Identifier. Name returns exactly name for every
// accepted input.
func New(name string) (Identifier, error) {
	if len(name) > MaxLength {
		return Identifier{}, fmt.Errorf("%w: %q is %d bytes (max %d)", ErrNameTooLong, name, len(name), MaxLength)
	}
	if strings.IndexByte(name, 0) >= 0 {
		return Identifier{}, fmt.Errorf("%w: %q", ErrNameHasNUL, name)
	}
	var buf [MaxLength]byte
	copy(buf[:], name)
	return fromBytes(buf), nil
}

// MustNew is New for literals; it panics on names that are too long.
func MustNew(name string) Identifier {
	id, err := New(name)
	if err != nil {
		panic(err)
	}
	return id
}

// OfType builds an identifier from T's type descriptor. Long descriptors are
// cut to MaxLength-1 bytes, so distinct types with a long shared prefix can
// collide.
func OfType[T any]() Identifier {
	name := reflect.TypeFor[T]().String()
	if len(name) > MaxLength-1 {
		name = name[:MaxLength-1]
	}
	return MustNew(name)
}

// FromWords builds an identifier from raw words.
func FromWords(w0, w1, w2, w3 uint64) Identifier {
	return Identifier{w: [numWords]uint64{w0, w1, w2, w3}}
}

func fromBytes(buf [MaxLength]byte) Identifier {
	var id Identifier
	for i := range id.w {
		id.w[i] = binary.BigEndian.Uint64(buf[i*8:])
	}
	return id
}

func (id Identifier) bytes() [MaxLength]byte {
	var buf [MaxLength]byte
	for i, w := range id.w {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return buf
}

// Name returns the stored name with trailing zero bytes trimmed.
func (id Identifier) Name() string {
	buf := id.bytes()
	return string(bytes.TrimRight(buf[:], "\x00"))
}

func (id Identifier) String() string { return id.Name() }

// Words returns the packed representation.
func (id Identifier) Words() [numWords]uint64 { return id.w }

func (id Identifier) IsZero() bool { return id.w == [numWords]uint64{} }

// Hash mixes the four words multiplicatively. Not cryptographic.
func (id Identifier) Hash() uint64 {
	const (
		offset = 0xcbf29ce484222325
		prime  = 0x100000001b3
	)
	h := uint64(offset)
	for _, w := range id.w {
		h ^= w
		h *= prime
		h ^= h >> 29
	}
	return h
}

// Compare orders identifiers lexicographically over their words, which is
// byte order of the zero-padded names.
func (id Identifier) Compare(other Identifier) int {
	for i := range id.w {
		switch {
		case id.w[i] < other.w[i]:
			return -1
		case id.w[i] > other.w[i]:
			return 1
		}
	}
	return 0
}

func (id Identifier) Less(other Identifier) bool { return id.Compare(other) < 0 }
