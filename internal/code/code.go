// Package code generates short human-enterable session codes.
package code

import (
	"crypto/rand"
	"math/big"
)

// Alphabet excludes visually ambiguous characters (0/O, 1/I).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of a session code.
const Length = 6

// Generate returns a random session code. Codes are not guaranteed unique;
// uniqueness among active sessions is enforced by the session controller
// through retry on conflict.
func Generate() string {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// nothing sensible to do but give up loudly.
			panic(err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}
