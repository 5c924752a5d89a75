package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show rollup statistics over all stored filers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		topN, _ := cmd.Flags().GetInt("top")
		ov, err := stats.Compute(ctx, st, topN)
		if err != nil {
			return err
		}

		fmt.Printf("Filers: %d\n", ov.TotalFilers)
		fmt.Printf("Aggregate market value: $%d\n", ov.TotalValue)

		fmt.Println("\nChange types (latest quarter):")
		for _, ct := range model.ChangeTypes {
			fmt.Printf("  %-10s %d\n", ct, ov.ChangeCounts[ct])
		}

		fmt.Println("\nTop filers by value:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CIK\tNAME\tPERIOD\tVALUE")
		for _, fv := range ov.TopFilers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", fv.CIK, fv.Name, fv.Period, fv.TotalValue)
		}
		w.Flush()
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of top filers to show")
	rootCmd.AddCommand(statsCmd)
}
