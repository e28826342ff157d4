package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofhir/gofsh/engine"
	"github.com/gofhir/gofsh/pkg/exportable"
	"github.com/gofhir/gofsh/pkg/logger"
)

// writeOutput writes the FSH files to <dir>/input/fsh and the project
// configuration to <dir>/sushi-config.yaml. It returns the written paths.
func writeOutput(dir string, pkg *exportable.Package) ([]string, error) {
	fshDir := filepath.Join(dir, "input", "fsh")
	if err := os.MkdirAll(fshDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", fshDir, err)
	}

	var written []string
	for _, f := range pkg.Files() {
		path := filepath.Join(fshDir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	if pkg.Config != nil {
		data, err := pkg.Config.YAML()
		if err != nil {
			return written, fmt.Errorf("failed to encode configuration: %w", err)
		}
		path := filepath.Join(dir, "sushi-config.yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func printSummary(w io.Writer, out *engine.Output, written []string, dir string) {
	pkg := out.Package
	fmt.Fprintln(w)
	fmt.Fprintln(w, "== gofsh results ==")
	rows := []struct {
		label string
		n     int
	}{
		{"Profiles", len(pkg.Profiles)},
		{"Extensions", len(pkg.Extensions)},
		{"Logicals", len(pkg.Logicals)},
		{"Resources", len(pkg.Resources)},
		{"ValueSets", len(pkg.ValueSets)},
		{"CodeSystems", len(pkg.CodeSystems)},
		{"Instances", len(pkg.Instances)},
		{"Invariants", len(pkg.Invariants)},
		{"Mappings", len(pkg.Mappings)},
		{"Aliases", len(pkg.Aliases)},
	}
	for _, r := range rows {
		if r.n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", r.label, r.n)
		}
	}

	stats := logger.Default().Stats()
	fmt.Fprintf(w, "Wrote %d file(s) to %s in %v (%d error(s), %d warning(s))\n",
		len(written), dir, out.Duration.Round(time.Millisecond), stats.Error, stats.Warn)
}
