package journal

import "math/rand"

const confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateConfirmationCode returns a fresh 6-character code the caller must
// resubmit with a destructive request. The code is not stored or verified
// against anything; the round trip is what establishes intent.
func GenerateConfirmationCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = confirmationAlphabet[rand.Intn(len(confirmationAlphabet))]
	}
	return string(code)
}
