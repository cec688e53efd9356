package cache

import (
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
	"bundlecore/pkg/logging"
)

// CallbackResult is how a progress/error callback tells the cache
// manager what to do next (spec §4.4: "callback return codes map to
// {continue, retry, cancel}").
type CallbackResult int

const (
	CallbackContinue CallbackResult = iota
	CallbackRetry
	CallbackCancel
)

// ProgressCallback reports bytes-progress for an in-flight acquisition.
type ProgressCallback func(payloadKey string, bytesDone, bytesTotal int64) CallbackResult

// ErrorCallback reports a typed acquisition error.
type ErrorCallback func(payloadKey string, err error) CallbackResult

// Manager is the cache manager (spec §4.4). One Manager instance lives
// for the whole engine session, shared by the cache worker in
// internal/executor.
type Manager struct {
	Roots Roots

	catalog *CatalogStore
	certs   CertificateStore

	progress ProgressCallback
	onError  ErrorCallback

	acquireGroup singleflight.Group
}

// Option configures optional collaborators on a Manager.
type Option func(*Manager)

func WithCatalog(c *CatalogStore) Option          { return func(m *Manager) { m.catalog = c } }
func WithCertificates(c CertificateStore) Option  { return func(m *Manager) { m.certs = c } }
func WithProgress(cb ProgressCallback) Option     { return func(m *Manager) { m.progress = cb } }
func WithErrorCallback(cb ErrorCallback) Option   { return func(m *Manager) { m.onError = cb } }

func NewManager(roots Roots, opts ...Option) *Manager {
	m := &Manager{Roots: roots}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) reportProgress(payloadKey string, done, total int64) CallbackResult {
	if m.progress == nil {
		return CallbackContinue
	}
	return m.progress(payloadKey, done, total)
}

func (m *Manager) reportError(payloadKey string, err error) CallbackResult {
	if m.onError == nil {
		return CallbackCancel
	}
	return m.onError(payloadKey, err)
}

// CompletePayload verifies the unverified file and atomically places it
// at its completed location (spec §4.4). move removes the source file
// after a successful copy; otherwise the source is left in place (layout
// mode may want to keep it).
func (m *Manager) CompletePayload(perMachine bool, payload *model.Payload, cacheID, unverifiedPath string, move bool) error {
	if err := m.verify(payload, unverifiedPath); err != nil {
		return err
	}

	dest := m.Roots.CompletedPath(perMachine, cacheID, payload.FilePathRelative)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp := dest + ".placing"
	if err := copyFile(unverifiedPath, tmp, 0o444); err != nil {
		return errors.Wrap(errors.KindExtractFailed, err, "staging payload %s", payload.Key)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.KindExtractFailed, err, "placing payload %s", payload.Key)
	}
	if err := os.Chmod(dest, 0o444); err != nil {
		logging.Debug("Cache", "could not set read-only on %s: %v", dest, err)
	}

	payload.State = model.PayloadCached
	if move {
		_ = os.Remove(unverifiedPath)
	}
	return nil
}

// RemovePackage removes the completed directory for one package,
// ignoring an absent entry (spec §4.4).
func (m *Manager) RemovePackage(perMachine bool, packageID, cacheID string) error {
	dir := filepath.Join(m.Roots.root(perMachine), cacheID)
	err := os.RemoveAll(dir)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.KindFileInUse, err, "removing package %s cache", packageID)
	}
	return nil
}

// Cleanup best-effort removes the working directory for a bundle
// (spec §4.4).
func (m *Manager) Cleanup(perMachine bool, bundleID string) error {
	dir := m.Roots.WorkingFolder(perMachine, bundleID)
	if err := os.RemoveAll(dir); err != nil {
		logging.Debug("Cache", "cleanup of %s failed: %v", dir, err)
		return nil
	}
	return nil
}

// acquireKey is the per-payload fingerprint singleflight dedups on:
// at most one acquire-or-verify per payload proceeds at a time (spec
// §4.4 concurrency invariant, §8 property 9).
func acquireKey(payload *model.Payload) string {
	if payload.ExpectedHash != "" {
		return payload.ExpectedHash
	}
	return payload.Key
}

// Acquire extracts or downloads payload into the working directory and
// completes it into the cache, deduplicating concurrent callers for the
// same payload. On a fetch or verification failure the payload's State
// is set to none and the error callback is asked what to do:
// CallbackRetry fetches and verifies again, any other answer returns the
// error.
func (m *Manager) Acquire(perMachine bool, bundleID, cacheID string, payload *model.Payload, src Source) error {
	_, err, _ := m.acquireGroup.Do(acquireKey(payload), func() (interface{}, error) {
		workDir, err := m.Roots.EnsureWorkingFolder(perMachine, bundleID)
		if err != nil {
			return nil, err
		}
		unverified := m.Roots.CalculateWorkingPath(perMachine, bundleID, PathPayload, payload.Key)
		if err := os.MkdirAll(filepath.Dir(unverified), 0o700); err != nil {
			return nil, err
		}

		_ = workDir
		for {
			_, err = src.FetchTo(unverified, func(done, total int64) bool {
				return m.reportProgress(payload.Key, done, total) != CallbackCancel
			})
			if err == nil {
				err = m.CompletePayload(perMachine, payload, cacheID, unverified, true)
			}
			if err == nil {
				return nil, nil
			}
			payload.State = model.PayloadNoneState
			if m.reportError(payload.Key, err) != CallbackRetry {
				return nil, err
			}
		}
	})
	return err
}
