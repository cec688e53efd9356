package bundlectl

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bundlecore/internal/bootstrapper"
	"bundlecore/internal/cache"
	"bundlecore/internal/container"
	"bundlecore/internal/executor"
	"bundlecore/internal/manifest"
	"bundlecore/internal/model"
	"bundlecore/internal/registration"
	"bundlecore/internal/registry"
	"bundlecore/internal/session"
	"bundlecore/internal/variables"
	"bundlecore/pkg/errors"
)

// sharedFlags are the flags every subcommand that drives a session needs;
// bound once on the root command's persistent flag set, mirroring the
// teacher's listConfigPath/listEndpoint package-level flag variables in
// cmd/list.go.
var (
	flagManifest   string
	flagBundleID   string
	flagPerMachine bool
	flagStateDir   string
	flagConfirm    bool
)

func addSharedFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagManifest, "manifest", "bundle.yaml", "path to the manifest fixture")
	cmd.PersistentFlags().StringVar(&flagBundleID, "bundle-id", "", "bundle id (defaults to the manifest's bundle.id)")
	cmd.PersistentFlags().BoolVar(&flagPerMachine, "per-machine", false, "run as a per-machine install (writes the Machine registry root)")
	cmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", defaultStateDir(), "directory for the registry file, cache roots, and exclusion lock")
	cmd.PersistentFlags().BoolVar(&flagConfirm, "yes", false, "accept every default without prompting")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "bundlecore")
	}
	return filepath.Join(home, ".local", "share", "bundlecore")
}

// sessionContext bundles everything buildSession assembles, so
// subcommands can reach into the pieces they individually need (the
// manifest document for listing, the registration store for status).
type sessionContext struct {
	Doc     *manifest.Document
	Session *session.Session
}

// buildSession wires one Session the way a real bundlectl process would:
// load the manifest, populate an EngineState, open the registry file
// store, build the Cache Manager and Registration Engine, and construct
// the Executor with a resolver that extracts embedded/external payloads
// from their container and downloads the rest. When ui is non-nil, cache
// acquisition progress and errors are routed through its OnProgress/
// OnRecoverableError callbacks (spec §4.4's progress/error callback
// contract).
func buildSession(ui bootstrapper.UI) (*sessionContext, error) {
	doc, err := manifest.Load(flagManifest)
	if err != nil {
		return nil, err
	}

	bundleID := flagBundleID
	if bundleID == "" {
		bundleID = doc.Bundle.ID
	}
	if bundleID == "" {
		return nil, errors.New(errors.KindInvalidManifest, "no bundle id: pass --bundle-id or set bundle.id in the manifest")
	}

	state := doc.BuildEngineState()
	vars := variables.New()

	if err := os.MkdirAll(flagStateDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindFatalSystem, err, "creating state dir %s", flagStateDir)
	}
	reg := registry.NewFileStore(filepath.Join(flagStateDir, "registry.json"))

	roots := cache.Roots{
		MachineRoot: filepath.Join(flagStateDir, "cache", "machine"),
		UserRoot:    filepath.Join(flagStateDir, "cache", "user"),
	}
	var cacheOpts []cache.Option
	if ui != nil {
		cacheOpts = append(cacheOpts,
			cache.WithProgress(func(payloadKey string, done, total int64) cache.CallbackResult {
				ui.OnProgress(payloadKey, done, total)
				return cache.CallbackContinue
			}),
			cache.WithErrorCallback(func(payloadKey string, err error) cache.CallbackResult {
				switch ui.OnRecoverableError(err) {
				case errors.UIActionRetry:
					return cache.CallbackRetry
				case errors.UIActionIgnore:
					return cache.CallbackContinue
				default:
					return cache.CallbackCancel
				}
			}),
		)
	}
	mgr := cache.NewManager(roots, cacheOpts...)

	store := registration.NewStore(reg)
	registrar := registration.SystemdResumeRegistrar{UnitDir: filepath.Join(flagStateDir, "systemd-user")}
	regEngine := registration.NewEngine(store, registrar, flagPerMachine)

	exe := &executor.Executor{
		State:      state,
		Cache:      mgr,
		Driver:     executor.NoopDriver{},
		Engine:     regEngine,
		LockDir:    filepath.Join(flagStateDir, "locks"),
		PerMachine: flagPerMachine,
		BundleID:   bundleID,
		Resolve:    resolverFor(state),
	}

	sess := &session.Session{
		State:      state,
		Vars:       vars,
		Searches:   doc.Searches,
		Reg:        reg,
		RegEngine:  regEngine,
		Cache:      mgr,
		Executor:   exe,
		BundleID:   bundleID,
		PerMachine: flagPerMachine,
	}

	return &sessionContext{Doc: doc, Session: sess}, nil
}

// resolverFor returns an executor.SourceResolver that extracts embedded/
// external payloads from their declared container and downloads
// download-packaged payloads over HTTP (spec §4.4's acquire-by-extract
// and acquire-by-download paths).
func resolverFor(state *model.EngineState) executor.SourceResolver {
	return func(payload model.Payload, containerIdx int) (cache.Source, error) {
		if payload.Packaging == model.PackagingDownload {
			return cache.HTTPSource{URL: payload.DownloadURL}, nil
		}

		c := state.Container(containerIdx)
		path := c.SourcePath
		var offset, size int64 = 0, c.ExpectedSize
		if c.Attached {
			exePath, err := os.Executable()
			if err != nil {
				return nil, errors.Wrap(errors.KindFatalSystem, err, "locating running executable for attached container")
			}
			path = exePath
			offset = c.AttachedOffset
		}

		cursor, err := container.Open(path, offset, size, c.Type)
		if err != nil {
			return nil, errors.Wrap(errors.KindExtractFailed, err, "opening container %s", c.ID)
		}
		return cache.ContainerSource{Cursor: cursor, EntryName: payload.FilePathRelative}, nil
	}
}
