package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTuple     = "strata/tuple/v1"
	DomainDeduction = "strata/deduction/v1"
	DomainRuleSet   = "strata/ruleset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00}) // Null separator - CRITICAL for security
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TupleKey computes the canonical content key for a tuple.
// The key is a pure function of the tuple's values: identical tuples key
// identically across calls, runs, and processes. Relation names are NOT
// part of the key - tuple tables are per relation.
func TupleKey(t Tuple) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("TupleKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTuple, canonical), nil
}

// DeductionHash computes the identity of one ground rule instantiation:
// a rule applied to a specific ordered list of source tuples. Used for
// deduction-level idempotency - the same instantiation discovered twice
// is recorded once.
func DeductionHash(ruleID string, sourceKeys []string) (string, error) {
	obj := map[string]any{
		"rule_id": ruleID,
		"sources": sourceKeys,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DeductionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDeduction, canonical), nil
}

// RuleSetHash computes a version hash over a rule set, in declaration order.
// Exported evaluation runs carry it so stored deductions can be correlated
// with the exact program that produced them.
func RuleSetHash(rules []Rule) (string, error) {
	rendered := make([]any, len(rules))
	for i, r := range rules {
		rendered[i] = r.String()
	}
	canonical, err := MarshalCanonical(rendered)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// MustTupleKey is like TupleKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTupleKey(t Tuple) string {
	key, err := TupleKey(t)
	if err != nil {
		panic(err)
	}
	return key
}

// MustDeductionHash is like DeductionHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDeductionHash(ruleID string, sourceKeys []string) string {
	hash, err := DeductionHash(ruleID, sourceKeys)
	if err != nil {
		panic(err)
	}
	return hash
}
