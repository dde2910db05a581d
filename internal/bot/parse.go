package bot

import (
	"errors"
	"strconv"
	"strings"
)

var errInvalidInput = errors.New("invalid input")

// parseAmount parses a positive integer amount from free text.
func parseAmount(text string) (int64, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		return 0, errInvalidInput
	}
	return amount, nil
}

// parsePurchase parses "<amount> <phone>" flow input. The amount must be an
// integer and the phone token present; the phone format is not validated.
func parsePurchase(text string) (int64, string, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, "", errInvalidInput
	}
	amount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, "", errInvalidInput
	}
	return amount, fields[1], nil
}
