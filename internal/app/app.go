// Package app is the application layer between the CLI and BVCService. It
// locates the repository, reads the user configuration, wires the concrete
// store, staging area, and remote clients, and manages the log lifecycle on
// Close.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"bvc-go/internal/bvc"
	"bvc-go/internal/config"
	"bvc-go/internal/content"
	"bvc-go/internal/ledger"
	"bvc-go/internal/staging"
	"bvc-go/internal/store"
)

// BVCApp is a fully wired application instance for one CLI invocation.
type BVCApp struct {
	Service    *bvc.BVCService
	UserConfig *config.Config
	Root       string
	Debug      bool

	store   *store.JSONStore
	ledger  bvc.Ledger
	logFile *os.File
}

// Options control application wiring.
type Options struct {
	// Dir is the working directory; defaults to the current directory.
	Dir string

	// Create makes the state directory instead of requiring an existing
	// repository. Used by init and clone.
	Create bool

	// Remote wires the ledger and content-store clients when the user
	// configuration carries endpoints for them. Commands with no remote
	// effect leave it false and never touch the network.
	Remote bool
}

// New creates a BVCApp for the named operation. The caller must call Close.
func New(ctx context.Context, operation string, opts Options) (*BVCApp, error) {
	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		dir = cwd
	}

	var root string
	var st *store.JSONStore
	var err error
	if opts.Create {
		if root, err = filepath.Abs(dir); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", dir, err)
		}
		if st, err = store.Init(root); err != nil {
			return nil, err
		}
	} else {
		if root, err = store.FindRoot(dir); err != nil {
			return nil, err
		}
		st = store.Open(root)
	}

	userCfg := &config.Config{}
	if path, err := UserConfigPath(root); err == nil && path != "" {
		if userCfg, err = config.ReadFromFile(path); err != nil {
			return nil, err
		}
	}

	debug := DebugEnabled()
	opID := operation + "-" + uuid.New().String()[:8]
	logger, logFile, err := newLogger(filepath.Join(st.Dir(), "log"), opID, debug)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	a := &BVCApp{
		UserConfig: userCfg,
		Root:       root,
		Debug:      debug,
		store:      st,
		logFile:    logFile,
	}

	var led bvc.Ledger
	var cnt bvc.ContentStore
	if opts.Remote {
		if userCfg.HasLedger() {
			if led, err = ledger.NewFromConfig(ctx, userCfg.Ledger, log); err != nil {
				logFile.Close()
				return nil, err
			}
			a.ledger = led
		}
		if userCfg.HasContent() {
			if cnt, err = content.NewFromConfig(userCfg.Content, log); err != nil {
				logFile.Close()
				return nil, err
			}
		}
	}

	sa := staging.NewArea(st, bvc.RealClock{}, log, root)
	a.Service = bvc.NewBVCService(st, sa, led, cnt, log, bvc.RealClock{}, root, userCfg.Author)
	return a, nil
}

// Close releases the log file and any remote connections.
func (a *BVCApp) Close() error {
	if eth, ok := a.ledger.(*ledger.EthereumLedger); ok {
		eth.Close()
	}
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
