package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/secureshare/internal/app"
)

func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired objects and tokens once, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Reaper.Sweep(cmd.Context())
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "objects=%d tokens=%d blobs=%d\n", res.Objects, res.Tokens, res.Blobs)
				return err
			})
		},
	}
}
