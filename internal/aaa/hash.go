package aaa

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DomainSovereign is the domain-separation prefix for sovereign account
// derivation. The version suffix enables future algorithm migration
// without colliding with existing accounts.
const DomainSovereign = "automaton/sovereign/v1"

// SovereignAccount derives the dedicated funding account of an
// instance. The derivation is deterministic: the same ID always yields
// the same account, so the account can be computed (and funded) before
// or after the instance exists.
//
// Format: "aaa-" + first 20 bytes of SHA256(domain || 0x00 || be64(id)),
// hex-encoded. The null separator prevents domain/data boundary
// ambiguity.
func SovereignAccount(id ID) Account {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], uint64(id))

	h := sha256.New()
	h.Write([]byte(DomainSovereign))
	h.Write([]byte{0x00})
	h.Write(idBytes[:])
	sum := h.Sum(nil)

	return Account("aaa-" + hex.EncodeToString(sum[:20]))
}

// NormalizeAccount NFC-normalizes and trims an account identifier.
// Returns a ValidationError with code BAD_IDENTIFIER for empty or
// control-character identifiers. Every account entering through the
// public API passes through here so that visually identical identifiers
// compare equal.
func NormalizeAccount(raw string) (Account, error) {
	s, err := normalizeIdentifier(raw, "account")
	if err != nil {
		return "", err
	}
	return Account(s), nil
}

// NormalizeAsset NFC-normalizes and trims an asset identifier.
func NormalizeAsset(raw string) (Asset, error) {
	s, err := normalizeIdentifier(raw, "asset")
	if err != nil {
		return "", err
	}
	return Asset(s), nil
}

func normalizeIdentifier(raw, what string) (string, error) {
	s := norm.NFC.String(strings.TrimSpace(raw))
	if s == "" {
		return "", newValidationError(ErrCodeBadIdentifier, -1, "empty %s identifier", what)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", newValidationError(ErrCodeBadIdentifier, -1, "%s identifier contains control character", what)
		}
	}
	return s, nil
}
