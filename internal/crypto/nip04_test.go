package crypto_test

import (
	"testing"

	"github.com/OpenAgentsInc/commander-sub000/internal/crypto"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func keypair(t *testing.T) (string, string) {
	t.Helper()
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)
	return sk, pk
}

func TestRoundTrip(t *testing.T) {
	aliceSK, alicePK := keypair(t)
	bobSK, bobPK := keypair(t)

	alice := crypto.NewNIP04Cipher(aliceSK)
	bob := crypto.NewNIP04Cipher(bobSK)

	plaintexts := []string{
		"hello world",
		"",
		`[["i","What is the capital of France?","text"],["param","model","gemma3:1b"]]`,
		"printable ASCII: !\"#$%&'()*+,-./0123456789:;<=>?@ABC~",
	}

	for _, plaintext := range plaintexts {
		ciphertext, err := alice.Encrypt(bobPK, plaintext)
		require.NoError(t, err)
		require.NotEqual(t, plaintext, ciphertext)

		decrypted, err := bob.Decrypt(alicePK, ciphertext)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestRoundTrip_BothDirections(t *testing.T) {
	aliceSK, alicePK := keypair(t)
	bobSK, bobPK := keypair(t)

	alice := crypto.NewNIP04Cipher(aliceSK)
	bob := crypto.NewNIP04Cipher(bobSK)

	ct, err := bob.Encrypt(alicePK, "reply payload")
	require.NoError(t, err)

	pt, err := alice.Decrypt(bobPK, ct)
	require.NoError(t, err)
	require.Equal(t, "reply payload", pt)
}

func TestDecrypt_GarbageCiphertext(t *testing.T) {
	aliceSK, _ := keypair(t)
	_, bobPK := keypair(t)

	alice := crypto.NewNIP04Cipher(aliceSK)
	_, err := alice.Decrypt(bobPK, "not-a-ciphertext")
	require.Error(t, err)
}
