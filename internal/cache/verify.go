package cache

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

// CatalogStore looks up whether a file hash is listed under a named
// catalog, standing in for the original's Authenticode catalog files
// (spec §4.4 step 4). Backed by a JSON sidecar: {"catalogName": ["hash1", ...]}.
type CatalogStore struct {
	path string
}

func NewCatalogStore(path string) *CatalogStore { return &CatalogStore{path: path} }

func (c *CatalogStore) Contains(catalog, hash string) (bool, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	var doc map[string][]string
	if err := json.Unmarshal(b, &doc); err != nil {
		return false, errors.Wrap(errors.KindVerifyFailed, err, "corrupt catalog store %s", c.path)
	}
	for _, h := range doc[catalog] {
		if h == hash {
			return true, nil
		}
	}
	return false, nil
}

// CertificateStore resolves a certificate_identifier to the certificate
// chain a payload's detached signature must chain to, standing in for
// Authenticode verification (spec §4.4 step 3).
type CertificateStore interface {
	Chain(identifier string) ([]*x509.Certificate, error)
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// verify implements spec §4.4's four-step "complete_payload" check:
// size, hash, certificate chain, catalog membership. Any missing
// criterion (ExpectedHash, CertificateID, Catalog empty) is skipped.
func (m *Manager) verify(payload *model.Payload, path string) error {
	hash, size, err := hashFile(path)
	if err != nil {
		return errors.Wrap(errors.KindVerifyFailed, err, "hashing %s", path)
	}
	if payload.ExpectedSize > 0 && size != payload.ExpectedSize {
		return errors.New(errors.KindVerifyFailed, "payload %s size mismatch: got %d want %d", payload.Key, size, payload.ExpectedSize)
	}
	if payload.ExpectedHash != "" && hash != payload.ExpectedHash {
		return errors.New(errors.KindVerifyFailed, "payload %s hash mismatch", payload.Key)
	}
	if payload.CertificateID != "" {
		if err := m.verifySignatureChain(payload); err != nil {
			return err
		}
	}
	if payload.Catalog != "" {
		if m.catalog == nil {
			return errors.New(errors.KindVerifyFailed, "payload %s declares catalog %s but no catalog store is configured", payload.Key, payload.Catalog)
		}
		ok, err := m.catalog.Contains(payload.Catalog, hash)
		if err != nil {
			return errors.Wrap(errors.KindVerifyFailed, err, "checking catalog %s", payload.Catalog)
		}
		if !ok {
			return errors.New(errors.KindVerifyFailed, "payload %s not listed in catalog %s", payload.Key, payload.Catalog)
		}
	}
	return nil
}

func (m *Manager) verifySignatureChain(payload *model.Payload) error {
	if m.certs == nil {
		return errors.New(errors.KindVerifyFailed, "payload %s requires certificate %s but no certificate store is configured", payload.Key, payload.CertificateID)
	}
	chain, err := m.certs.Chain(payload.CertificateID)
	if err != nil {
		return errors.Wrap(errors.KindVerifyFailed, err, "resolving certificate %s", payload.CertificateID)
	}
	if len(chain) == 0 {
		return errors.New(errors.KindVerifyFailed, "certificate %s has no chain", payload.CertificateID)
	}
	roots := x509.NewCertPool()
	for _, c := range chain[1:] {
		roots.AddCert(c)
	}
	if _, err := chain[0].Verify(x509.VerifyOptions{Roots: roots}); err != nil {
		return errors.Wrap(errors.KindVerifyFailed, err, "certificate chain for %s does not verify", payload.CertificateID)
	}
	return nil
}

// VerifyPayloadSignature re-runs only the signature step for a cached
// payload: it checks that the certificate chain registered under
// payload.CertificateID verifies. The file at path is not read, and no
// signature over the payload's contents is checked.
func (m *Manager) VerifyPayloadSignature(payload *model.Payload, path string) error {
	if payload.CertificateID == "" {
		return nil
	}
	return m.verifySignatureChain(payload)
}
