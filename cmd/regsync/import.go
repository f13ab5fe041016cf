package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/regsync/internal/core"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import a register extract",
		Long: `Import loads one register extract under the import lock and prints the
result as JSON. Without an argument IMPORT_SOURCE_PATH is used. A file whose
fingerprint is already recorded is a no-op.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Import.SourcePath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no source file: pass one or set IMPORT_SOURCE_PATH")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if a.cfg.Import.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, a.cfg.Import.Timeout)
				defer cancel()
			}

			tp, stopTracing, err := a.startTracing()
			if err != nil {
				return err
			}
			defer stopTracing()

			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			locker, closeLock, err := a.newLock()
			if err != nil {
				return err
			}
			defer closeLock()

			result, err := core.RunLocked(ctx, locker, a.newLoader(pool, nil, tp, nil), path)
			if result != nil {
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
}
