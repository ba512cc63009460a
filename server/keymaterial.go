package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// rsaKeyBits matches the reference implementation's RsaPrivateKey::new bit
// size for the login key-exchange keypair.
const rsaKeyBits = 1024

// KeyMaterial is immutable for the process lifetime: one RSA keypair and
// the DER-encoded SubjectPublicKeyInfo of its public half, shared by
// pointer across every accepted connection. Grounded on
// original_source/server/src/server.rs's Server::new, which generates the
// key once at startup and hands the same Arc to every spawned task.
type KeyMaterial struct {
	Private   *rsa.PrivateKey
	PublicDER []byte
}

// NewKeyMaterial generates a fresh ephemeral RSA keypair. Used when the
// server configuration has no key_path, matching the source's default of
// generating a new key on every process start.
func NewKeyMaterial() (*KeyMaterial, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("server: generate rsa key: %w", err)
	}
	return keyMaterialFromPrivate(priv)
}

// LoadOrGenerateKeyMaterial reads an RSA private key in PEM form from path,
// generating and persisting a fresh one if the file does not exist. An
// empty path always generates an ephemeral key, per Config.KeyPath's
// documented default.
func LoadOrGenerateKeyMaterial(path string) (*KeyMaterial, error) {
	if path == "" {
		return NewKeyMaterial()
	}

	data, err := os.ReadFile(path)
	if err == nil {
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("server: %s does not contain a PEM block", path)
		}
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("server: parse rsa key from %s: %w", path, err)
		}
		return keyMaterialFromPrivate(priv)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("server: read %s: %w", path, err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("server: generate rsa key: %w", err)
	}
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, fmt.Errorf("server: write %s: %w", path, err)
	}
	return keyMaterialFromPrivate(priv)
}

func keyMaterialFromPrivate(priv *rsa.PrivateKey) (*KeyMaterial, error) {
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("server: marshal public key: %w", err)
	}
	return &KeyMaterial{Private: priv, PublicDER: der}, nil
}
