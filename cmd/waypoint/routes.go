package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/router"
)

func routesCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `Print every route in match order with its name, view or redirect,
and meta keys. Routes that can never match are flagged.

Example:
  waypoint routes
  waypoint routes --manifest config/routes.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, src, err := loadTable(cmd, manifestPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			faint.Fprintf(out, "%s (%d routes)\n\n", src.Name(), table.Len())
			printTable(cmd, table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Read this manifest instead of the configured one")

	return cmd
}

// printTable writes one row per entry, then the fallback and any shadowed
// routes.
func printTable(cmd *cobra.Command, table *router.Table) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tNAME\tTARGET\tMETA")
	for _, e := range table.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Path(),
			orDash(e.Name()),
			entryTarget(e),
			orDash(strings.Join(e.MetaKeys(), ",")))
	}
	w.Flush()

	if fb := table.Fallback(); fb != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		info(cmd, "Fallback view: %v", fb)
	}

	shadowed := table.Shadowed()
	if len(shadowed) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	for _, e := range shadowed {
		warn(cmd, "%s (#%d) can never match: an earlier route takes the same locations", e.Path(), e.Order())
	}
}

func entryTarget(e *router.Entry) string {
	if r := e.Redirect(); r != "" {
		return "→ " + r
	}
	if v := e.View(); v != nil {
		return fmt.Sprint(v)
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
