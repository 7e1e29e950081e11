// Package ingress accepts platform webhooks, verifies authenticity,
// normalizes to a models.MessageEnvelope, deduplicates, and publishes
// (spec §4.2). One file per platform exposes Verify + Normalize; this
// file holds the shared constant-time comparison helper every
// platform's signature check builds on, grounded on the teacher's own
// middleware/apikey.go hand-rolled comparison rather than an auth
// library for a few lines of HMAC arithmetic.
package ingress

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/greentic/messaging-fabric/pkg/models"
)

// HMACAlg is a configured ingress signature algorithm.
type HMACAlg string

const (
	AlgSHA1   HMACAlg = "sha1"
	AlgSHA256 HMACAlg = "sha256"
)

// verifyHMAC checks that sig (hex-encoded) is the HMAC of body under
// secret using alg, in constant time.
func verifyHMAC(alg HMACAlg, secret, body []byte, sig string) bool {
	var mac []byte
	switch alg {
	case AlgSHA1:
		h := hmac.New(sha1.New, secret)
		h.Write(body)
		mac = h.Sum(nil)
	default:
		h := hmac.New(sha256.New, secret)
		h.Write(body)
		mac = h.Sum(nil)
	}
	expected := hex.EncodeToString(mac)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}

// constantTimeEqual compares two shared-secret strings (Telegram's
// X-Telegram-Bot-Api-Secret-Token, Teams' bearer token) without a
// timing side channel.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// errUnauthorized wraps models.ErrUnauthorized with a stage-specific
// message for every platform's Verify on a signature/token mismatch.
func errUnauthorized(reason string) error {
	return fmt.Errorf("%w: %s", models.ErrUnauthorized, reason)
}
