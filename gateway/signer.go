package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"caregate/apperr"
	"caregate/database/repository/registry"
)

// Signer produces the detached HMAC-SHA256 signature carried in the
// X-Gateway-Signature header.
type Signer struct {
	key []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret)}
}

// Sign returns the base64 signature of the raw request body.
func (s *Signer) Sign(body []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature against the given key in constant time.
func Verify(key string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

// Verifier authenticates inbound protocol requests by subscriber id.
type Verifier interface {
	VerifyRequest(ctx context.Context, subscriberID string, body []byte, signature string) error
}

// RegistryVerifier resolves the signing key from the network registry.
type RegistryVerifier struct {
	Registry registryRepo.SubscriberRepository
}

func NewRegistryVerifier(registry registryRepo.SubscriberRepository) *RegistryVerifier {
	return &RegistryVerifier{Registry: registry}
}

func (v *RegistryVerifier) VerifyRequest(ctx context.Context, subscriberID string, body []byte, signature string) error {
	sub, err := v.Registry.GetByID(ctx, subscriberID)
	if err != nil {
		return err
	}
	if !sub.Subscribed() {
		return &apperr.NotFoundError{Entity: "subscriber", ID: subscriberID}
	}
	if !Verify(sub.SigningKey, body, signature) {
		return apperr.ErrSignatureInvalid
	}
	return nil
}
