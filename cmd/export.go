package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/timeline"
)

var exportCmd = &cobra.Command{
	Use:   "export <cik>",
	Short: "Export a filer's holdings and timeline to an XLSX workbook",
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
		if len(f.Reports) == 0 {
			return eris.Errorf("filer %s has no reports", args[0])
		}

		quarters, _ := cmd.Flags().GetInt("quarters")
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = fmt.Sprintf("holdings_%s.xlsx", f.CIK)
		}

		wb, err := buildWorkbook(f, quarters)
		if err != nil {
			return err
		}
		if err := wb.Save(out); err != nil {
			return eris.Wrapf(err, "export: save %s", out)
		}

		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

func buildWorkbook(f *model.Filer, quarters int) (*xlsx.File, error) {
	wb := xlsx.NewFile()

	if err := addHoldingsSheet(wb, f); err != nil {
		return nil, err
	}
	if err := addTimelineSheet(wb, f, quarters); err != nil {
		return nil, err
	}
	return wb, nil
}

// addHoldingsSheet writes the latest report with its QoQ columns.
func addHoldingsSheet(wb *xlsx.File, f *model.Filer) error {
	sheet, err := wb.AddSheet("Holdings")
	if err != nil {
		return eris.Wrap(err, "export: add holdings sheet")
	}

	latest := f.Reports[0]
	header := sheet.AddRow()
	for _, h := range []string{
		"CUSIP", "Issuer", "Ticker", "Sector", "Class",
		"Value", "Shares", "% Portfolio", "Value Chg", "Value Chg %",
		"Shares Chg", "Shares Chg %", "Change",
	} {
		header.AddCell().Value = h
	}

	for _, h := range latest.Holdings {
		row := sheet.AddRow()
		row.AddCell().Value = h.CUSIP
		row.AddCell().Value = h.IssuerName
		row.AddCell().Value = h.Ticker
		row.AddCell().Value = h.Sector
		row.AddCell().Value = h.ClassTitle
		row.AddCell().SetInt64(h.Value)
		row.AddCell().SetInt64(h.Shares)
		row.AddCell().SetFloatWithFormat(h.PctOfPortfolio, "0.00")
		row.AddCell().SetInt64(h.ValueChange)
		row.AddCell().SetFloatWithFormat(h.ValueChangePct, "0.00")
		row.AddCell().SetInt64(h.SharesChange)
		row.AddCell().SetFloatWithFormat(h.SharesChangePct, "0.00")
		row.AddCell().Value = string(h.Change)
	}
	return nil
}

// addTimelineSheet writes the pivoted per-quarter values, one column
// per quarter in the window.
func addTimelineSheet(wb *xlsx.File, f *model.Filer, quarters int) error {
	tl, err := timeline.Build(f, timeline.Options{Quarters: quarters})
	if err != nil {
		return err
	}

	sheet, err := wb.AddSheet("Timeline")
	if err != nil {
		return eris.Wrap(err, "export: add timeline sheet")
	}

	header := sheet.AddRow()
	header.AddCell().Value = "CUSIP"
	header.AddCell().Value = "Issuer"
	for _, q := range tl.Quarters {
		header.AddCell().Value = q
	}

	for _, it := range tl.Holdings {
		row := sheet.AddRow()
		row.AddCell().Value = it.CUSIP
		row.AddCell().Value = it.IssuerName

		pi := 0
		for _, q := range tl.Quarters {
			cell := row.AddCell()
			if pi < len(it.Points) && it.Points[pi].Quarter == q {
				cell.SetInt64(it.Points[pi].Value)
				pi++
			}
		}
	}
	return nil
}

func init() {
	exportCmd.Flags().Int("quarters", timeline.DefaultQuarters, "number of recent quarters in the timeline sheet")
	exportCmd.Flags().String("out", "", "output path (default holdings_<cik>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
