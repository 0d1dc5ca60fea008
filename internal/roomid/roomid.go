// Package roomid generates and validates whiteboard session identifiers.
// An id is a short random token plus a base-36 timestamp suffix, e.g.
// "xK3f9-m1z2abc": collision-resistant without coordination and roughly
// sortable by creation time.
package roomid

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strconv"
	"time"
)

const (
	// RandomLength is the number of random characters before the suffix.
	RandomLength = 5

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var ErrInvalidID = errors.New("invalid session id")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]{5}-[0-9a-z]{1,16}$`)

// New returns a fresh session id.
func New() string {
	buf := make([]byte, RandomLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	suffix := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return string(buf) + "-" + suffix
}

// Validate reports whether id has the expected shape. The server never
// generates ids; it only refuses ones a client could not have produced.
func Validate(id string) error {
	if !idPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}
