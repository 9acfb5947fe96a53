package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillsync/internal/app"
)

func embeddingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Manage catalog skill embeddings",
	}
	cmd.AddCommand(embeddingsSyncCmd())
	return cmd
}

func embeddingsSyncCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Embed catalog skills missing a vector for the configured model",
		Long: `Sync embeds every active catalog skill that has no vector for the
configured embedding model, stores the vectors and, with VECTOR_PROVIDER=qdrant,
mirrors them into the qdrant collection.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			sync, err := a.IndexSync()
			if err != nil {
				return err
			}
			res, err := sync.Sync(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "provider=%s model=%s missing=%d embedded=%d batches=%d pushed=%d\n",
				a.Vector.Provider, a.Vector.Embedder.Model(), res.Missing, res.Embedded, res.Batches, res.Pushed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
