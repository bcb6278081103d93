package auth

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/punchamoorthee/rageshop/internal/domain"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 6
	bcryptCost     = 10
)

var errMalformedHash = errors.New("malformed password hash")

// VerifyPassword checks plain against a stored hash. The game database holds
// hashes from several generations of tooling: bcrypt, argon2 (PHC string),
// unsalted sha256 or md5 hex, and plaintext. A hash in none of those formats,
// or one that fails to parse, is compared as plaintext.
func VerifyPassword(plain, hash string) bool {
	if hash == "" {
		return false
	}

	ok, err := verifyHashed(plain, hash)
	if err == nil {
		return ok
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(hash)) == 1
}

func verifyHashed(plain, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err

	case strings.HasPrefix(hash, "$argon2"):
		return verifyArgon2(plain, hash)

	case isHex(hash, 64):
		sum := sha256.Sum256([]byte(plain))
		return hexEqual(sum[:], hash), nil

	case isHex(hash, 32):
		sum := md5.Sum([]byte(plain))
		return hexEqual(sum[:], hash), nil
	}
	return false, errMalformedHash
}

// verifyArgon2 checks a PHC string: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func verifyArgon2(plain, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errMalformedHash
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, errMalformedHash
	}

	var got []byte
	switch parts[1] {
	case "argon2id":
		got = argon2.IDKey([]byte(plain), salt, time, memory, threads, uint32(len(want)))
	case "argon2i":
		got = argon2.Key([]byte(plain), salt, time, memory, threads, uint32(len(want)))
	default:
		return false, errMalformedHash
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func hexEqual(sum []byte, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum)), []byte(strings.ToLower(stored))) == 1
}

// HashPassword hashes a new password with bcrypt.
func HashPassword(plain string) (string, error) {
	if len(plain) < MinPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidRequest, MinPasswordLen)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
