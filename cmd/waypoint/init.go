package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/history"
)

const starterManifest = `version: 1
fallback: NotFound
routes:
  - path: /
    name: home
    view: Home
  - path: /about
    name: about
    view: About
`

func initCmd() *cobra.Command {
	var (
		base  string
		hash  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create waypoint.json and a starter route manifest",
		Long: `Write a waypoint.json with default settings and a routes.yaml with two
routes into dir (default: the current directory).

Example:
  waypoint init
  waypoint init ./web --base /app --hash`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			cfgPath := filepath.Join(dir, config.ConfigFileName)
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
			}

			cfg := config.New()
			if abs, err := filepath.Abs(dir); err == nil {
				cfg.Name = filepath.Base(abs)
			}
			cfg.Base = history.NormalizeBase(base)
			if hash {
				cfg.History = history.ModeHash.String()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(cfgPath); err != nil {
				return err
			}
			success(cmd, "Created %s", cfgPath)

			manifestPath := cfg.ManifestPath()
			if _, err := os.Stat(manifestPath); err == nil && !force {
				warn(cmd, "Kept existing %s", manifestPath)
			} else {
				if err := os.WriteFile(manifestPath, []byte(starterManifest), 0o644); err != nil {
					return err
				}
				success(cmd, "Created %s", manifestPath)
			}

			fmt.Fprintln(cmd.OutOrStdout())
			info(cmd, "Next: %s", cyan.Sprint("waypoint serve --config "+dir))
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Path prefix the app is served under")
	cmd.Flags().BoolVar(&hash, "hash", false, "Use hash URLs")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}
