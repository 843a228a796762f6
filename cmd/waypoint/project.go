package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/router"
)

// loadConfig reads and validates the file named by --config, which may be a
// waypoint.json path or the directory holding it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = "."
	}

	var (
		cfg *config.Config
		err error
	)
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// manifestSource returns the source cfg points at.
func manifestSource(cfg *config.Config) (manifest.Source, error) {
	if s3cfg := cfg.Manifest.S3; s3cfg != nil {
		client := manifest.NewS3Client(manifest.S3Config{
			Region:   s3cfg.Region,
			Endpoint: s3cfg.Endpoint,
		})
		return manifest.NewS3Source(client, s3cfg.Bucket, s3cfg.Key)
	}
	return manifest.NewFileSource(cfg.ManifestPath())
}

// loadTable loads the route table for the commands that only inspect it.
// An explicit --manifest file wins over the project configuration.
func loadTable(cmd *cobra.Command, manifestPath string) (*router.Table, manifest.Source, error) {
	var (
		src manifest.Source
		err error
	)
	if manifestPath != "" {
		src, err = manifest.NewFileSource(manifestPath)
	} else {
		var cfg *config.Config
		cfg, err = loadConfig(cmd)
		if err != nil {
			return nil, nil, err
		}
		src, err = manifestSource(cfg)
	}
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	table, _, err := manifest.Load(ctx, src, nil)
	if err != nil {
		return nil, nil, err
	}
	return table, src, nil
}
