package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainExpr = "mchain/expr/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ExprHash computes the content-addressed ID of an expression tree. It is
// stable across processes and is the plan-cache key in the store.
//
// Operands hash by name, shape, properties and their position among the
// distinct operands of the tree. Two builds of the same chain from fresh
// operands hash alike, while a tree that reuses one operand hashes apart from
// one that uses two equal-looking operands.
func ExprHash(e Expr) (string, error) {
	canonical, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("ExprHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainExpr, canonical), nil
}

// MustExprHash is like ExprHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustExprHash(e Expr) string {
	id, err := ExprHash(e)
	if err != nil {
		panic(err)
	}
	return id
}
