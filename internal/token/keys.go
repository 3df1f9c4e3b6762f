package token

import (
	"crypto/rsa"
	"fmt"
	"os"

	jwt "github.com/golang-jwt/jwt/v5"
)

// LoadPrivateKey parses a PEM-encoded RSA private key, reading it from a
// file when path is set and raw is empty. The raw value wins so that
// orchestrators can inject the key directly without mounting files.
func LoadPrivateKey(raw, path string) (*rsa.PrivateKey, error) {
	pem, err := keyMaterial(raw, path)
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// LoadPublicKey parses a PEM-encoded RSA public key with the same source
// precedence as LoadPrivateKey.
func LoadPublicKey(raw, path string) (*rsa.PublicKey, error) {
	pem, err := keyMaterial(raw, path)
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}

func keyMaterial(raw, path string) ([]byte, error) {
	if raw != "" {
		return []byte(raw), nil
	}
	if path == "" {
		return nil, fmt.Errorf("no key material: set the raw key or a key file path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return data, nil
}
