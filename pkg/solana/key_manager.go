package solana

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

// KeyStoreEntry is one encrypted keypair on disk, named <address>.json
type KeyStoreEntry struct {
	Address      string `json:"address"`
	Label        string `json:"label,omitempty"`
	EncryptedKey string `json:"encrypted_key"`
	Version      int    `json:"version"`
}

// KeyManager generates admin, seller and bidder keypairs and keeps them encrypted in a directory
type KeyManager struct {
	dir string
}

func NewKeyManager(dir string) *KeyManager {
	return &KeyManager{dir: dir}
}

func (km *KeyManager) Dir() string { return km.dir }

func (km *KeyManager) GenerateKeyPair() (*types.Account, error) {
	account := types.NewAccount()
	return &account, nil
}

// EncryptPrivateKey encrypts a private key using AES-256-GCM
func (km *KeyManager) EncryptPrivateKey(privateKey []byte, password string) (string, error) {
	block, err := aes.NewCipher(deriveKey(password))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	// nonce || ciphertext
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, privateKey, nil)), nil
}

func (km *KeyManager) DecryptPrivateKey(encryptedKey string, password string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	block, err := aes.NewCipher(deriveKey(password))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// SaveKeyStoreEntry encrypts account and writes it under the keystore directory, returning the file path
func (km *KeyManager) SaveKeyStoreEntry(account *types.Account, label, password string) (string, error) {
	encrypted, err := km.EncryptPrivateKey(account.PrivateKey, password)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt private key: %w", err)
	}
	address := account.PublicKey.ToBase58()
	data, err := json.MarshalIndent(KeyStoreEntry{
		Address:      address,
		Label:        label,
		EncryptedKey: encrypted,
		Version:      1,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore entry: %w", err)
	}
	if err := os.MkdirAll(km.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create keystore directory: %w", err)
	}
	path := filepath.Join(km.dir, address+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write keystore entry: %w", err)
	}
	return path, nil
}

func (km *KeyManager) LoadKeyStoreEntry(address string, password string) (*types.Account, error) {
	data, err := os.ReadFile(filepath.Join(km.dir, address+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore entry: %w", err)
	}
	var entry KeyStoreEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore entry: %w", err)
	}
	if entry.Address != address {
		return nil, fmt.Errorf("address mismatch: expected %s, got %s", address, entry.Address)
	}
	privateKey, err := km.DecryptPrivateKey(entry.EncryptedKey, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}
	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create account from private key: %w", err)
	}
	if account.PublicKey.ToBase58() != address {
		return nil, fmt.Errorf("keystore entry %s holds the key of %s", address, account.PublicKey.ToBase58())
	}
	return &account, nil
}

// List returns the addresses stored in the keystore, sorted
func (km *KeyManager) List() ([]string, error) {
	entries, err := os.ReadDir(km.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(out)
	return out, nil
}

// SignMessage returns the base58 ed25519 signature of msg, the form the API expects in X-Signature
func SignMessage(account *types.Account, msg []byte) string {
	return base58.Encode(account.Sign(msg))
}

// deriveKey creates a 32-byte key from a password using SHA-256
func deriveKey(password string) []byte {
	hash := sha256.Sum256([]byte(password))
	return hash[:]
}
