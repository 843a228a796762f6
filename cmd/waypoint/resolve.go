package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/logging"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

func resolveCmd() *cobra.Command {
	var (
		manifestPath string
		name         string
		params       map[string]string
		from         string
		maxRedirects int
	)

	cmd := &cobra.Command{
		Use:   "resolve [location]",
		Short: "Show where a navigation would land",
		Long: `Run a navigation against the route table without a browser and print
the outcome: status, redirect chain, matched route, params and view.

Example:
  waypoint resolve /users/42?tab=posts
  waypoint resolve --name user -p id=42
  waypoint resolve /old-dashboard --from /settings`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target navigation.Target
			switch {
			case name != "" && len(args) > 0:
				return fmt.Errorf("pass a location or --name, not both")
			case name != "":
				target = navigation.Named(name, params)
			case len(args) == 1:
				target = navigation.To(args[0])
			default:
				return fmt.Errorf("a location or --name is required")
			}

			table, _, err := loadTable(cmd, manifestPath)
			if err != nil {
				return err
			}

			opts := []navigation.Option{navigation.WithLogger(logging.Discard())}
			if maxRedirects > 0 {
				opts = append(opts, navigation.WithMaxRedirects(maxRedirects))
			}
			ctrl := navigation.New(table, history.NewMemory(from), opts...)
			defer ctrl.Stop()

			if _, err := ctrl.Start(cmd.Context()); err != nil {
				return fmt.Errorf("starting at %s: %w", from, err)
			}

			res, err := ctrl.Navigate(cmd.Context(), target)
			printResult(cmd, target, res)
			return err
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Read this manifest instead of the configured one")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Navigate to a named route")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Params for --name (key=value)")
	cmd.Flags().StringVar(&from, "from", "/", "Location the navigation starts from")
	cmd.Flags().IntVar(&maxRedirects, "max-redirects", 0, "Redirect bound (0 uses the default)")

	return cmd
}

func printResult(cmd *cobra.Command, target navigation.Target, res *navigation.Result) {
	if res == nil {
		return
	}
	out := cmd.OutOrStdout()

	status := res.Status.String()
	switch res.Status {
	case navigation.StatusCommitted:
		success(cmd, "%s %s", target, green.Sprint(status))
	case navigation.StatusFailed:
		errorMsg(cmd, "%s %s", target, status)
	default:
		warn(cmd, "%s %s", target, status)
	}

	if res.Reason != "" {
		info(cmd, "Reason:    %s", res.Reason)
	}
	for _, hop := range res.Redirects {
		info(cmd, "Redirect:  %s", faint.Sprint(hop))
	}

	to := res.To
	if to == nil {
		return
	}
	info(cmd, "Location:  %s", cyan.Sprint(to.FullPath))
	if to.NotFound {
		info(cmd, "Route:     %s", yellow.Sprint("no match"))
	} else {
		info(cmd, "Route:     %s", describeRoute(to))
	}
	if len(to.Params) > 0 {
		info(cmd, "Params:    %s", formatMap(to.Params))
	}
	if len(to.Query) > 0 {
		info(cmd, "Query:     %s", formatMap(to.Query))
	}
	if to.Hash != "" {
		info(cmd, "Hash:      %s", to.Hash)
	}
	if v := to.View(); v != nil {
		info(cmd, "View:      %v", v)
	}
	fmt.Fprintln(out)
}

func describeRoute(m *router.MatchedRoute) string {
	if m.Name() == "" {
		return m.Entry.Path()
	}
	return fmt.Sprintf("%s (%s)", m.Entry.Path(), m.Name())
}

func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, " ")
}
