package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GeneratePairingCode produces a short human-enterable code in the form
// "123-456". Both halves avoid leading zeros so the code reads naturally
// over the phone.
func GeneratePairingCode() string {
	return fmt.Sprintf("%03d-%03d", randomPart(), randomPart())
}

func randomPart() int {
	n, err := rand.Int(rand.Reader, big.NewInt(900))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return 100 + int(n.Int64())
}
