package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/cddsproject/cdds/backend/internal/config"
)

func cmdInfo(
	ctx context.Context, args map[string]interface{}, cfg *config.Config,
) {
	gw := mustGateway(ctx, args, cfg)
	info, err := gw.Info(ctx)
	if err != nil {
		fatalw("Failed to get MASS info.", "err", err)
	}

	fmt.Printf("available: %t\n", info.Available)
	classes := make([]string, 0, len(info.Commands))
	for c := range info.Commands {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		fmt.Printf("%s: %t\n", c, info.Commands[c])
	}
}
