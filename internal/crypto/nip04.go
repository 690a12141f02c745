// Package crypto provides the asymmetric payload encryption used for
// encrypted job requests and results (NIP-04).
package crypto

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr/nip04"
)

// Cipher encrypts and decrypts job payloads against a counterparty pubkey.
// Implementations are bound to one local private key.
type Cipher interface {
	Encrypt(theirPubkey, plaintext string) (string, error)
	Decrypt(theirPubkey, ciphertext string) (string, error)
}

// NIP04Cipher implements Cipher with the NIP-04 shared-secret scheme.
type NIP04Cipher struct {
	privateKey string
}

// NewNIP04Cipher binds a cipher to the given hex private key.
func NewNIP04Cipher(privateKey string) *NIP04Cipher {
	return &NIP04Cipher{privateKey: privateKey}
}

func (c *NIP04Cipher) Encrypt(theirPubkey, plaintext string) (string, error) {
	shared, err := nip04.ComputeSharedSecret(theirPubkey, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("computing shared secret: %w", err)
	}
	ciphertext, err := nip04.Encrypt(plaintext, shared)
	if err != nil {
		return "", fmt.Errorf("encrypting payload: %w", err)
	}
	return ciphertext, nil
}

func (c *NIP04Cipher) Decrypt(theirPubkey, ciphertext string) (string, error) {
	shared, err := nip04.ComputeSharedSecret(theirPubkey, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("computing shared secret: %w", err)
	}
	plaintext, err := nip04.Decrypt(ciphertext, shared)
	if err != nil {
		return "", fmt.Errorf("decrypting payload: %w", err)
	}
	return plaintext, nil
}

// Compile-time check that NIP04Cipher implements Cipher.
var _ Cipher = (*NIP04Cipher)(nil)
