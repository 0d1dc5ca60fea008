package whiteboard

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewSessionID mints a session id: five random alphanumeric characters,
// a dash, then the current unix-millisecond timestamp in base 36. The
// timestamp suffix makes collisions require both a same-millisecond
// creation and a 1-in-62^5 prefix match.
func NewSessionID() string {
	buf := make([]byte, 5)
	max := big.NewInt(int64(len(sessionIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		buf[i] = sessionIDAlphabet[n.Int64()]
	}
	return string(buf) + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}
