package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of packages loaded at once.
const DefaultConcurrency = 4

// LoadFailure records a package that could not be loaded.
type LoadFailure struct {
	Ref PackageRef
	Err error
}

// Error implements error.
func (f LoadFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Ref, f.Err)
}

// Load resolves one reference: a path to a .tgz or a package directory, a
// cached package, or a download when a client is configured.
func (l *Loader) Load(ctx context.Context, ref PackageRef) (*Package, error) {
	if strings.HasSuffix(ref.Name, ".tgz") {
		return l.LoadFromTgz(ref.Name)
	}
	if info, err := os.Stat(ref.Name); err == nil && info.IsDir() {
		return l.LoadDir(ref.Name)
	}

	pkg, err := l.LoadPackage(ref.Name, ref.Version)
	if err == nil {
		return pkg, nil
	}
	if l.client == nil {
		return nil, err
	}

	dir, derr := l.client.GetPackage(ctx, ref.Name, ref.Version)
	if derr != nil {
		return nil, fmt.Errorf("%w; download failed: %v", err, derr)
	}
	return l.LoadDir(dir)
}

// LoadAll loads refs concurrently and waits for all of them. Packages that
// fail are reported in the failure list and omitted; the others keep the
// order of refs. The returned error is only set when ctx is cancelled.
func (l *Loader) LoadAll(ctx context.Context, refs []PackageRef) ([]*Package, []LoadFailure, error) {
	loaded := make([]*Package, len(refs))
	failures := make([]error, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pkg, err := l.Load(gctx, ref)
			if err != nil {
				failures[i] = err
				return nil
			}
			loaded[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var packages []*Package
	var failed []LoadFailure
	for i, ref := range refs {
		if failures[i] != nil {
			failed = append(failed, LoadFailure{Ref: ref, Err: failures[i]})
			continue
		}
		packages = append(packages, loaded[i])
	}
	return packages, failed, nil
}
