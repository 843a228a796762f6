package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/manifest"
)

func checkCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and route manifest",
		Long: `Load waypoint.json and the route manifest it names, build the route
table, and report problems. Exits non-zero when either is invalid.

With --strict, routes that can never match are errors too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			success(cmd, "Configuration %s", faint.Sprint(cfg.Path()))

			src, err := manifestSource(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			table, version, err := manifest.Load(ctx, src, nil)
			if err != nil {
				return err
			}
			if version != "" {
				success(cmd, "Manifest %s %s", src.Name(), faint.Sprintf("(%s)", version))
			} else {
				success(cmd, "Manifest %s", src.Name())
			}
			info(cmd, "%d routes", table.Len())

			shadowed := table.Shadowed()
			for _, e := range shadowed {
				warn(cmd, "%s (#%d) can never match", e.Path(), e.Order())
			}
			if strict && len(shadowed) > 0 {
				return &manifest.Error{
					Source: src.Name(),
					Kind:   manifest.ErrInvalid,
					Err:    fmt.Errorf("%d unreachable routes", len(shadowed)),
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat unreachable routes as errors")

	return cmd
}
