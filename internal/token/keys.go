package token

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/notevault/backend/internal/config"
)

// KeyStore holds the four RSA key materials for the process lifetime. Access
// and refresh tokens use separate key pairs so a leaked verification key for
// one kind cannot be confused into verifying the other.
//
// Keys are loaded once at startup and read-only afterwards, safe for
// unbounded concurrent use.
type KeyStore struct {
	accessPrivate  *rsa.PrivateKey
	accessPublic   *rsa.PublicKey
	refreshPrivate *rsa.PrivateKey
	refreshPublic  *rsa.PublicKey
}

// NewKeyStore builds a KeyStore from in-memory private keys, deriving the
// public halves. Used by tests and by deployments that inject key material
// directly.
func NewKeyStore(accessPrivate, refreshPrivate *rsa.PrivateKey) *KeyStore {
	return &KeyStore{
		accessPrivate:  accessPrivate,
		accessPublic:   &accessPrivate.PublicKey,
		refreshPrivate: refreshPrivate,
		refreshPublic:  &refreshPrivate.PublicKey,
	}
}

// LoadKeyStore reads the four PEM files named by cfg.
func LoadKeyStore(cfg config.AuthConfig) (*KeyStore, error) {
	accessPrivate, err := loadPrivateKey(cfg.AccessPrivateKey)
	if err != nil {
		return nil, err
	}
	accessPublic, err := loadPublicKey(cfg.AccessPublicKey)
	if err != nil {
		return nil, err
	}
	refreshPrivate, err := loadPrivateKey(cfg.RefreshPrivateKey)
	if err != nil {
		return nil, err
	}
	refreshPublic, err := loadPublicKey(cfg.RefreshPublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyStore{
		accessPrivate:  accessPrivate,
		accessPublic:   accessPublic,
		refreshPrivate: refreshPrivate,
		refreshPublic:  refreshPublic,
	}, nil
}

func (k *KeyStore) signingKey(kind Kind) (*rsa.PrivateKey, error) {
	switch kind {
	case KindAccess:
		return k.accessPrivate, nil
	case KindRefresh:
		return k.refreshPrivate, nil
	}
	return nil, fmt.Errorf("unknown token kind %q", kind)
}

func (k *KeyStore) verifyKey(kind Kind) (*rsa.PublicKey, error) {
	switch kind {
	case KindAccess:
		return k.accessPublic, nil
	case KindRefresh:
		return k.refreshPublic, nil
	}
	return nil, fmt.Errorf("unknown token kind %q", kind)
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", path, err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", path, err)
	}
	return key, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key %s: %w", path, err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key %s: %w", path, err)
	}
	return key, nil
}
