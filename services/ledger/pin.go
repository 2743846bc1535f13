package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// pinDigits balances guessability against being speakable over chat.
const pinDigits = 6

var pinModulus = new(big.Int).Exp(big.NewInt(10), big.NewInt(pinDigits), nil)

// generatePIN returns a zero-padded numeric PIN from crypto/rand. PINs are
// scoped to a record, not unique across the ledger; email+PIN together
// authenticate a guest.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, pinModulus)
	if err != nil {
		return "", fmt.Errorf("failed to generate PIN: %w", err)
	}
	return fmt.Sprintf("%0*d", pinDigits, n), nil
}
