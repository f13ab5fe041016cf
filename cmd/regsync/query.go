package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/regsync/internal/core"
)

// withReader opens the store, runs fn against a query service and closes
// the pool.
func (a *app) withReader(ctx context.Context, fn func(core.Reader) error) error {
	pool, err := a.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(a.newQueryService(pool, nil))
}

func newSearchCmd(a *app) *cobra.Command {
	var filter core.SearchFilter

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReader(cmd.Context(), func(r core.Reader) error {
				return runSearch(cmd.Context(), r, filter, cmd.OutOrStdout())
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.Name, "name", "", "organisation name substring (case-insensitive)")
	f.StringVar(&filter.Postcode, "postcode", "", "postcode substring (case-insensitive)")
	f.StringVar(&filter.RegistrationNumber, "number", "", "exact registration number")
	f.StringVar(&filter.PublicAuthority, "public-authority", "", "exact public authority flag")
	f.StringVar(&filter.Tier, "tier", "", "exact fee tier")
	f.IntVar(&filter.Limit, "limit", 0, "maximum rows (default from QUERY_DEFAULT_LIMIT)")
	f.IntVar(&filter.Offset, "offset", 0, "rows to skip")
	return cmd
}

func runSearch(ctx context.Context, r core.Reader, filter core.SearchFilter, w io.Writer) error {
	regs, err := r.Search(ctx, filter)
	if err != nil {
		return err
	}
	return printJSON(w, regs)
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <registration-number>",
		Short: "Show one registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReader(cmd.Context(), func(r core.Reader) error {
				reg, err := r.GetByKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), reg)
			})
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the record count and active version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReader(cmd.Context(), func(r core.Reader) error {
				stats, err := r.GetStats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List imported data versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReader(cmd.Context(), func(r core.Reader) error {
				versions, err := r.ListVersions(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), versions)
			})
		},
	}
}
