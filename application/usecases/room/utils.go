package room

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

const tokenBytes = 6

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidToken reports whether token has the shape of a minted room token.
func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}
