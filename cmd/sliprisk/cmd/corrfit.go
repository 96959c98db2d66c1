package cmd

import (
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/slipio"
)

var corrfitCmd = &cobra.Command{
	Use:   "corrfit",
	Short: "Fit leg correlations from historical hits",
	Long: `Estimate pairwise correlations from a date,leg_key,hit CSV. Each pair is
the phi coefficient of the two legs' outcomes on the dates both were
settled, clamped to the engine's correlation bounds.

Examples:
  sliprisk corrfit --hits hits.csv --out corr.json
  sliprisk corrfit --hits hits.csv --min-overlap 30 --redis localhost:6379`,
	Args: cobra.NoArgs,
	RunE: runCorrfit,
}

var (
	corrfitHits       string
	corrfitOut        string
	corrfitMinOverlap int
)

func init() {
	rootCmd.AddCommand(corrfitCmd)

	corrfitCmd.Flags().StringVar(&corrfitHits, "hits", "", "historical hits CSV (required)")
	corrfitCmd.Flags().StringVarP(&corrfitOut, "out", "o", "", "write the fitted table here (JSON or YAML)")
	corrfitCmd.Flags().IntVar(&corrfitMinOverlap, "min-overlap", 20, "minimum shared dates per pair")
	corrfitCmd.MarkFlagRequired("hits")
}

func runCorrfit(cmd *cobra.Command, args []string) error {
	hits, err := slipio.LoadHits(corrfitHits)
	if err != nil {
		return err
	}

	tbl, stats := corr.Fit(hits, corrfitMinOverlap)
	out := cmd.OutOrStdout()

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "Fitted %d pairs from %d hits\n", len(keys), len(hits))
	for _, k := range keys {
		fmt.Fprintf(out, "  %-30s rho=%+.3f n=%d\n", k, stats[k].Rho, stats[k].N)
	}

	if corrfitOut != "" {
		if err := slipio.SaveFile(corrfitOut, tbl.Map()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %s\n", corrfitOut)
	}

	if redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer client.Close()
		if err := corr.Publish(cmd.Context(), client, redisKey, tbl); err != nil {
			return fmt.Errorf("publish correlations: %w", err)
		}
		fmt.Fprintf(out, "✓ Published %d pairs to %s %s\n", tbl.Len(), redisAddr, redisKey)
	}
	return nil
}
