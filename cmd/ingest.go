package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/holdings-cli/internal/fetcher"
	"github.com/sells-group/holdings-cli/internal/filing"
	"github.com/sells-group/holdings-cli/internal/model"
	"github.com/sells-group/holdings-cli/internal/report"
	"github.com/sells-group/holdings-cli/pkg/resolve"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths or urls...]",
	Short: "Ingest 13F filings into the report store",
	Long: `Ingest 13F filings into the report store.

With --format json (default), arguments are parsed-filing JSON documents
or directories of them. With --format 13f-xml, arguments are raw EDGAR
information-table XML files or http/ftp URLs, and the filer identity
must be supplied via flags.

Filings are processed one at a time; a failed filing is reported and
skipped, never rolling back the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filings, err := collectFilings(cmd, args)
		if err != nil {
			return err
		}

		doResolve, _ := cmd.Flags().GetBool("resolve")
		if doResolve {
			if cfg.Resolver.BaseURL == "" {
				return eris.New("ingest: --resolve requires resolver.base_url")
			}
			rc := resolve.New(resolve.Options{
				BaseURL: cfg.Resolver.BaseURL,
				RPS:     cfg.Resolver.RPS,
			})
			for i := range filings {
				rc.Enrich(ctx, filings[i].Holdings)
			}
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := report.NewService(st)
		res := svc.IngestBatch(ctx, filings)

		fmt.Printf("Processed %d filings: %d succeeded, %d failed, %d filers created, %d holdings saved\n",
			res.Processed, res.Succeeded, res.Failed, res.FilersCreated, res.HoldingsSaved)
		for _, fe := range res.Errors {
			fmt.Printf("  FAILED %s (%s): %s\n", fe.CIK, fe.Accession, fe.Error)
		}

		if res.Succeeded == 0 && res.Failed > 0 {
			return eris.New("ingest: all filings failed")
		}
		return nil
	},
}

func collectFilings(cmd *cobra.Command, args []string) ([]model.Filing, error) {
	format, _ := cmd.Flags().GetString("format")

	switch format {
	case "json":
		var filings []model.Filing
		for _, path := range args {
			fs, err := filing.LoadJSONPath(path)
			if err != nil {
				return nil, err
			}
			filings = append(filings, fs...)
		}
		return filings, nil

	case "13f-xml":
		meta, err := xmlMetadata(cmd)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, eris.New("ingest: --format 13f-xml takes exactly one source")
		}

		body, err := openSource(cmd.Context(), args[0])
		if err != nil {
			return nil, err
		}
		defer body.Close()

		f, err := filing.Parse13F(cmd.Context(), body, meta)
		if err != nil {
			return nil, err
		}
		return []model.Filing{*f}, nil

	default:
		return nil, eris.Errorf("ingest: unknown format %q", format)
	}
}

// openSource reads a local file, or downloads http(s)/ftp URLs through
// the rate-limited fetchers.
func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{UserAgent: cfg.EDGAR.UserAgent})
		return f.Download(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		return fetcher.NewFTPFetcher(0).Download(ctx, source)
	default:
		fh, err := os.Open(source)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", source)
		}
		return fh, nil
	}
}

func xmlMetadata(cmd *cobra.Command) (filing.Metadata, error) {
	cik, _ := cmd.Flags().GetString("cik")
	name, _ := cmd.Flags().GetString("name")
	address, _ := cmd.Flags().GetString("address")
	accession, _ := cmd.Flags().GetString("accession")
	periodEnd, _ := cmd.Flags().GetString("period-end")
	filedAt, _ := cmd.Flags().GetString("filed-at")

	if cik == "" || periodEnd == "" {
		return filing.Metadata{}, eris.New("ingest: --format 13f-xml requires --cik and --period-end")
	}

	pe, err := time.Parse("2006-01-02", periodEnd)
	if err != nil {
		return filing.Metadata{}, eris.Wrap(err, "ingest: parse --period-end")
	}

	fa := pe
	if filedAt != "" {
		fa, err = time.Parse("2006-01-02", filedAt)
		if err != nil {
			return filing.Metadata{}, eris.Wrap(err, "ingest: parse --filed-at")
		}
	}

	zap.L().Debug("ingest: xml metadata",
		zap.String("cik", cik),
		zap.String("period_end", periodEnd),
	)

	return filing.Metadata{
		CIK:       cik,
		Name:      name,
		Address:   address,
		Accession: accession,
		PeriodEnd: pe,
		FiledAt:   fa,
	}, nil
}

func init() {
	ingestCmd.Flags().String("format", "json", "input format: json or 13f-xml")
	ingestCmd.Flags().Bool("resolve", false, "enrich holdings with ticker/sector via the mapping service")
	ingestCmd.Flags().String("cik", "", "filer CIK (13f-xml only)")
	ingestCmd.Flags().String("name", "", "filer display name (13f-xml only)")
	ingestCmd.Flags().String("address", "", "filer address (13f-xml only)")
	ingestCmd.Flags().String("accession", "", "accession number (13f-xml only)")
	ingestCmd.Flags().String("period-end", "", "report period end date YYYY-MM-DD (13f-xml only)")
	ingestCmd.Flags().String("filed-at", "", "filing date YYYY-MM-DD (13f-xml only)")
	rootCmd.AddCommand(ingestCmd)
}
