// Package codes generates and parses the human-readable identifiers used for
// trust-account records: <PREFIX><4-digit year><6-digit zero-padded sequence>,
// e.g. TAT2026000042. Sequences reset per year and are never reused.
package codes

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// TransactionPrefix is the prefix for trust account transaction codes.
	TransactionPrefix = "TAT"
	// LedgerPrefix is the prefix for trust account ledger entry codes.
	LedgerPrefix = "TAL"

	// MaxSeq is the largest sequence a code can carry. Codes are fixed-width so
	// lexical order equals allocation order; a wider sequence would break that.
	MaxSeq = 999999

	seqDigits = 6
)

// ErrSequenceExhausted is returned when a year's sequence runs past MaxSeq.
var ErrSequenceExhausted = errors.New("code sequence exhausted for year")

// Format builds a code from its parts. The sequence must fit the fixed width.
func Format(prefix string, year int, seq int64) (string, error) {
	if seq < 1 || seq > MaxSeq {
		return "", fmt.Errorf("%w: sequence %d for %s%04d", ErrSequenceExhausted, seq, prefix, year)
	}
	return fmt.Sprintf("%s%04d%0*d", prefix, year, seqDigits, seq), nil
}

// Parse splits a code into prefix, year and sequence. Codes are fixed-width;
// anything of a different length is rejected.
func Parse(code string) (prefix string, year int, seq int64, err error) {
	if len(code) != 3+4+seqDigits {
		return "", 0, 0, fmt.Errorf("code %q has wrong length", code)
	}
	prefix = code[:3]
	if prefix != TransactionPrefix && prefix != LedgerPrefix {
		return "", 0, 0, fmt.Errorf("code %q has unknown prefix", code)
	}
	year, err = strconv.Atoi(code[3:7])
	if err != nil {
		return "", 0, 0, fmt.Errorf("code %q has invalid year: %w", code, err)
	}
	seq, err = strconv.ParseInt(code[7:], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("code %q has invalid sequence: %w", code, err)
	}
	return prefix, year, seq, nil
}
