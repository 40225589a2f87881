package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/cddsproject/cdds/backend/internal/config"
)

// `cmdLs()` prints one line per record, `D` for directories and `F` for
// files, with a trailing `(empty)` for empty directories.
func cmdLs(
	ctx context.Context, args map[string]interface{}, cfg *config.Config,
) {
	path, ok := args["<path>"].(string)
	if !ok {
		if cfg.Archive.Root == "" {
			fatalw("Missing <path> and `archive.root`.")
		}
		path = cfg.DatasetRequest().SimulationPath(cfg.Archive.Root)
	}

	gw := mustGateway(ctx, args, cfg)
	rs, err := gw.List(ctx, path)
	if err != nil {
		fatalw("Failed to list.", "path", path, "err", err)
	}

	paths := make([]string, 0, len(rs))
	for p := range rs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		r := rs[p]
		switch {
		case r.IsDir && r.Empty:
			fmt.Printf("D %s (empty)\n", p)
		case r.IsDir:
			fmt.Printf("D %s\n", p)
		default:
			fmt.Printf("F %s\n", p)
		}
	}
}
