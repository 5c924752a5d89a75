// Package filing parses filing input into model.Filing records: the
// parsed-JSON document contract used by the ingestion pipeline, and raw
// EDGAR 13F information-table XML. Ticker/sector enrichment is layered
// on afterwards by the resolver client; absent resolution never fails a
// filing here.
package filing

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/holdings-cli/internal/fetcher"
	"github.com/sells-group/holdings-cli/internal/model"
)

// Metadata carries the filer identity and filing reference for a 13F
// XML document, which contains only the holdings table itself.
type Metadata struct {
	CIK       string
	Name      string
	Address   string
	Accession string
	PeriodEnd time.Time
	FiledAt   time.Time
}

// infoTableEntry mirrors one <infoTable> element of a 13F information
// table. Values are reported in thousands of dollars.
type infoTableEntry struct {
	IssuerName string `xml:"nameOfIssuer"`
	ClassTitle string `xml:"titleOfClass"`
	CUSIP      string `xml:"cusip"`
	Value      int64  `xml:"value"`
	Shares     int64  `xml:"shrsOrPrnAmt>sshPrnamt"`
	ShPrnType  string `xml:"shrsOrPrnAmt>sshPrnamtType"`
}

// ParseJSON decodes one parsed-filing JSON document.
func ParseJSON(r io.Reader) (*model.Filing, error) {
	var f model.Filing
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, eris.Wrap(err, "filing: decode json")
	}
	return &f, nil
}

// Parse13F streams a 13F information-table XML document into a Filing.
// CUSIPs shorter than 9 characters are dropped; longer ones truncate to
// the 9-character identifier.
func Parse13F(ctx context.Context, r io.Reader, meta Metadata) (*model.Filing, error) {
	entryCh, errCh := fetcher.StreamXML[infoTableEntry](ctx, r, "infoTable")

	f := &model.Filing{
		CIK:       meta.CIK,
		Name:      meta.Name,
		Address:   meta.Address,
		Accession: meta.Accession,
		PeriodEnd: meta.PeriodEnd,
		FiledAt:   meta.FiledAt,
	}

	var dropped int
	for e := range entryCh {
		cusip := strings.TrimSpace(e.CUSIP)
		if len(cusip) < 9 {
			dropped++
			continue
		}
		f.Holdings = append(f.Holdings, model.RawHolding{
			CUSIP:      cusip[:9],
			IssuerName: strings.TrimSpace(e.IssuerName),
			ClassTitle: strings.TrimSpace(e.ClassTitle),
			Value:      e.Value * 1000, // reported in thousands
			Shares:     e.Shares,
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "filing: parse 13F info table for %s", meta.CIK)
	}

	if dropped > 0 {
		zap.L().Debug("filing: dropped holdings with short CUSIPs",
			zap.String("cik", meta.CIK),
			zap.Int("dropped", dropped),
		)
	}
	return f, nil
}

// LoadJSONPath reads parsed-filing JSON documents from a file or, for a
// directory, every *.json file within it (non-recursive).
func LoadJSONPath(path string) ([]model.Filing, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "filing: stat %s", path)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, eris.Wrapf(err, "filing: read dir %s", path)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
	} else {
		files = []string{path}
	}

	filings := make([]model.Filing, 0, len(files))
	for _, file := range files {
		fh, err := os.Open(file)
		if err != nil {
			return nil, eris.Wrapf(err, "filing: open %s", file)
		}
		f, err := ParseJSON(fh)
		fh.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "filing: parse %s", file)
		}
		filings = append(filings, *f)
	}
	return filings, nil
}
