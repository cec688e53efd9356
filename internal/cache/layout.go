package cache

import (
	"io"
	"os"
	"path/filepath"

	"bundlecore/internal/variables"
)

// Roots is the pair of on-disk roots the engine chooses between
// depending on a package's per-machine flag (spec §4.4's "per-user or
// per-machine root").
type Roots struct {
	MachineRoot string
	UserRoot    string
}

func (r Roots) root(perMachine bool) string {
	if perMachine {
		return r.MachineRoot
	}
	return r.UserRoot
}

// PathKind discriminates what CalculateWorkingPath is computing a path
// for, per spec §4.4.
type PathKind int

const (
	PathPayload PathKind = iota
	PathContainer
	PathBundleExe
)

// WorkingFolder returns the scratch directory used during acquisition,
// before a payload is known-good.
func (r Roots) WorkingFolder(perMachine bool, bundleID string) string {
	return filepath.Join(r.root(perMachine), "working", bundleID)
}

// EnsureWorkingFolder creates the working folder if absent; idempotent,
// restricted to the owning principal via 0700 (spec §4.4: "ACL
// restricted to the owning principal" — the POSIX analogue of an ACL).
func (r Roots) EnsureWorkingFolder(perMachine bool, bundleID string) (string, error) {
	dir := r.WorkingFolder(perMachine, bundleID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// CalculateWorkingPath is pure path computation, no I/O (spec §4.4).
func (r Roots) CalculateWorkingPath(perMachine bool, bundleID string, kind PathKind, name string) string {
	dir := r.WorkingFolder(perMachine, bundleID)
	switch kind {
	case PathContainer:
		return filepath.Join(dir, "containers", name)
	case PathBundleExe:
		return filepath.Join(dir, "bundle.exe")
	default:
		return filepath.Join(dir, "payloads", name+".unverified")
	}
}

// CompletedPath is where a fully verified payload lives, keyed by the
// package's cache id and the payload's relative file path (spec §4.4).
func (r Roots) CompletedPath(perMachine bool, cacheID, fileRelPath string) string {
	return filepath.Join(r.root(perMachine), cacheID, fileRelPath)
}

// FindLocalSource probes Variables["LastUsedSource"], then the original
// source directory, then the running executable's directory, returning
// the first path that exists (spec §4.4).
func FindLocalSource(sourcePath, fileName string, vars *variables.Store) (string, bool) {
	candidates := []string{}
	if last := vars.GetString("LastUsedSource"); last != "" {
		candidates = append(candidates, filepath.Join(last, fileName))
	}
	if sourcePath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(sourcePath), fileName))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), fileName))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// CacheBundleToWorkingDir copies the running bundle executable into the
// working directory, returning the working copy's path (spec §4.4).
func CacheBundleToWorkingDir(bundleExePath, workingDir string) (string, error) {
	dst := filepath.Join(workingDir, "bundle.exe")
	if err := copyFile(bundleExePath, dst, 0o755); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
