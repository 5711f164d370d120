package solana

import (
	"bytes"
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyManager(t *testing.T) {
	km := NewKeyManager(t.TempDir())

	t.Run("Generate Key Pair", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)
		assert.NotEmpty(t, account.PublicKey.ToBase58())
		assert.Equal(t, 64, len(account.PrivateKey), "Private key should be 64 bytes")
	})

	t.Run("Encrypt and Decrypt Private Key", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "test-password")
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := km.DecryptPrivateKey(encrypted, "test-password")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(account.PrivateKey, decrypted), "Decrypted private key should match original")
	})

	t.Run("Save and Load Keystore Entry", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)
		address := account.PublicKey.ToBase58()

		path, err := km.SaveKeyStoreEntry(account, "admin-1", "test-password")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(km.Dir(), address+".json"), path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		loaded, err := km.LoadKeyStoreEntry(address, "test-password")
		require.NoError(t, err)
		assert.Equal(t, address, loaded.PublicKey.ToBase58())
		assert.True(t, bytes.Equal(account.PrivateKey, loaded.PrivateKey))

		addresses, err := km.List()
		require.NoError(t, err)
		assert.Contains(t, addresses, address)
	})

	t.Run("Signatures Verify With Solana Keys", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)
		msg := []byte(`{"auction":"x"}`)

		sig, err := solana.SignatureFromBase58(SignMessage(account, msg))
		require.NoError(t, err)
		pub := solana.MustPublicKeyFromBase58(account.PublicKey.ToBase58())
		assert.True(t, sig.Verify(pub, msg))
		assert.True(t, ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:]))
		assert.False(t, sig.Verify(pub, []byte("tampered")))
	})

	t.Run("Error Cases", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "password1")
		require.NoError(t, err)
		_, err = km.DecryptPrivateKey(encrypted, "password2")
		assert.Error(t, err)

		_, err = km.DecryptPrivateKey("bm90LWVub3VnaA==", "password1")
		assert.Error(t, err)

		_, err = km.LoadKeyStoreEntry("nonexistent", "password1")
		assert.Error(t, err)

		_, err = km.SaveKeyStoreEntry(account, "", "password1")
		require.NoError(t, err)
		_, err = km.LoadKeyStoreEntry(account.PublicKey.ToBase58(), "wrong")
		assert.Error(t, err)
	})

	t.Run("Empty Keystore Lists Nothing", func(t *testing.T) {
		addresses, err := NewKeyManager(filepath.Join(t.TempDir(), "missing")).List()
		require.NoError(t, err)
		assert.Empty(t, addresses)
	})

	t.Run("Multiple Key Generation", func(t *testing.T) {
		keys := make(map[string]bool)
		for i := 0; i < 10; i++ {
			account, err := km.GenerateKeyPair()
			require.NoError(t, err)
			address := account.PublicKey.ToBase58()
			assert.False(t, keys[address], "Generated duplicate address")
			keys[address] = true
		}
	})
}
