package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/timeline"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <cik>",
	Short: "Show a filer's holdings pivoted across recent quarters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f, err := st.GetFiler(ctx, args[0])
		if err != nil {
			return err
		}
		if f == nil {
			return eris.Errorf("no filer with CIK %s", args[0])
		}

		quarters, _ := cmd.Flags().GetInt("quarters")
		sortBy, _ := cmd.Flags().GetString("sort")
		changeType, _ := cmd.Flags().GetString("change-type")

		tl, err := timeline.Build(f, timeline.Options{
			Quarters:   quarters,
			SortBy:     sortBy,
			ChangeType: model.ChangeType(changeType),
		})
		if err != nil {
			return err
		}

		printTimeline(tl)
		return nil
	},
}

func printTimeline(tl *timeline.Timeline) {
	fmt.Printf("%s (%s)\n\n", tl.Name, tl.CIK)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "ISSUER\tCUSIP\tTICKER")
	for _, q := range tl.Quarters {
		fmt.Fprintf(w, "\t%s", q)
	}
	fmt.Fprintln(w)

	for _, it := range tl.Holdings {
		fmt.Fprintf(w, "%s\t%s\t%s", it.IssuerName, it.CUSIP, it.Ticker)

		// Points align with the quarter list; absent quarters render
		// as dashes without disturbing the relative order.
		pi := 0
		for _, q := range tl.Quarters {
			if pi < len(it.Points) && it.Points[pi].Quarter == q {
				p := it.Points[pi]
				fmt.Fprintf(w, "\t%d (%s)", p.Value, p.Change)
				pi++
			} else {
				fmt.Fprint(w, "\t-")
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func init() {
	timelineCmd.Flags().Int("quarters", timeline.DefaultQuarters, "number of recent quarters")
	timelineCmd.Flags().String("sort", timeline.SortByValue, "sort order: value or name")
	timelineCmd.Flags().String("change-type", "", "only instruments with this change type (NEW, INCREASED, DECREASED, UNCHANGED, EXITED)")
	rootCmd.AddCommand(timelineCmd)
}
