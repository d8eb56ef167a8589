// Package password hashes organization credentials.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Accepted plain-text password length on registration.
const (
	MinLength = 8
	MaxLength = 128
)

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// current is what Hash uses. Stored hashes with weaker settings are
// upgraded on the next login.
var current = argonParams{memory: 64 * 1024, time: 1, threads: 4}

const (
	saltLen = 16
	keyLen  = 32
)

var (
	errMalformed = errors.New("malformed password hash")
	b64          = base64.RawStdEncoding
)

// Hash encodes password as a PHC string:
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, current.time, current.memory, current.threads, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, current.memory, current.time, current.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether password matches encoded. bcrypt hashes of
// imported accounts are accepted too.
func Verify(password, encoded string) bool {
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	check := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, check) == 1
}

// NeedsRehash reports whether encoded should be replaced by a fresh Hash
// after a successful Verify.
func NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	params, _, _, err := decode(encoded)
	if err != nil {
		return true
	}
	return params.memory < current.memory || params.time < current.time
}

func isBcrypt(encoded string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, prefix) {
			return true
		}
	}
	return false
}

func decode(encoded string) (argonParams, []byte, []byte, error) {
	var params argonParams
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return params, nil, nil, errMalformed
	}
	if fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return params, nil, nil, errMalformed
	}

	var threads uint32
	n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &threads)
	if err != nil || n != 3 || threads == 0 || threads > 255 || params.time == 0 {
		return params, nil, nil, errMalformed
	}
	params.threads = uint8(threads)

	salt, err := b64.DecodeString(fields[4])
	if err != nil {
		return params, nil, nil, errMalformed
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errMalformed
	}
	return params, salt, key, nil
}
