package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const phcAlgorithm = "argon2id"

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// ErrMalformedHash is returned when a stored hash is not a valid
// argon2id PHC string. Callers treat it as a verification failure,
// not a transient fault.
var ErrMalformedHash = errors.New("password: malformed hash")

// Params control the argon2id cost of newly created hashes. Stored
// hashes carry their own parameters and verify regardless of the
// current Params.
type Params struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the cost used when the caller does not
// override it.
func DefaultParams() Params {
	return Params{
		MemoryKB:    64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher derives and checks argon2id password hashes. A Hasher is
// immutable after construction and safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates p and returns a Hasher using it.
func NewHasher(p Params) (*Hasher, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}
	return &Hasher{params: p}, nil
}

// Hash derives a new hash for plain with a random salt and returns it
// in PHC format. The input is used byte for byte; no normalization.
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: salt generation: %w", err)
	}

	key := argon2.IDKey(
		[]byte(plain),
		salt,
		h.params.Time,
		h.params.MemoryKB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		argon2.Version,
		h.params.MemoryKB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. The comparison is
// constant time in the derived key. A hash that cannot be parsed
// yields ErrMalformedHash.
func (h *Hasher) Verify(plain, encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey(
		[]byte(plain),
		parsed.salt,
		parsed.time,
		parsed.memoryKB,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(key, parsed.key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker
// parameters than the Hasher's current Params.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	if parsed.memoryKB < h.params.MemoryKB ||
		parsed.time < h.params.Time ||
		parsed.parallelism < h.params.Parallelism {
		return true, nil
	}
	return uint32(len(parsed.key)) != h.params.KeyLength, nil
}

type phcHash struct {
	memoryKB    uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}
	if parts[1] != phcAlgorithm {
		return nil, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, parts[1])
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedHash)
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, fmt.Errorf("%w: version %q", ErrMalformedHash, version)
	}

	out := &phcHash{}
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q", ErrMalformedHash, pair)
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: memory %q", ErrMalformedHash, v)
			}
			out.memoryKB = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: time %q", ErrMalformedHash, v)
			}
			out.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: parallelism %q", ErrMalformedHash, v)
			}
			out.parallelism = uint8(n)
		default:
			return nil, fmt.Errorf("%w: parameter %q", ErrMalformedHash, k)
		}
	}
	if out.memoryKB == 0 || out.time == 0 || out.parallelism == 0 {
		return nil, fmt.Errorf("%w: incomplete parameters", ErrMalformedHash)
	}

	var err error
	out.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(out.salt) == 0 {
		return nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	out.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(out.key) == 0 {
		return nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return out, nil
}

func validateParams(p Params) error {
	if p.MemoryKB < minMemoryKB {
		return fmt.Errorf("password: memory must be >= %d KB", minMemoryKB)
	}
	if p.Time < minTimeCost {
		return errors.New("password: time cost must be >= 1")
	}
	if p.Parallelism < minParallelism {
		return errors.New("password: parallelism must be >= 1")
	}
	if p.SaltLength < minSaltLength {
		return fmt.Errorf("password: salt length must be >= %d", minSaltLength)
	}
	if p.KeyLength < minKeyLength {
		return fmt.Errorf("password: key length must be >= %d", minKeyLength)
	}
	return nil
}
