package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const CodeLength = 6

// GenerateCode returns a uniformly random 6 digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsBypass reports whether code is the testing bypass and the build and
// runtime both allow it.
func IsBypass(code string, testingMode bool) bool {
	return bypassCompiled && testingMode && BypassCode != "" && code == BypassCode
}
