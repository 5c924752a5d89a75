package model

import "time"

// RawHolding is one position as produced by the filing parser, before
// diffing. Ticker and Sector come from the identifier/sector resolvers
// and stay empty when resolution fails.
type RawHolding struct {
	CUSIP      string `json:"cusip"`
	IssuerName string `json:"issuer_name"`
	ClassTitle string `json:"class_title"`
	Value      int64  `json:"value"`
	Shares     int64  `json:"shares"`
	Ticker     string `json:"ticker,omitempty"`
	Sector     string `json:"sector,omitempty"`
}

// Filing is one parsed 13F filing handed to the report service.
type Filing struct {
	CIK       string       `json:"cik"`
	Name      string       `json:"name"`
	Address   string       `json:"address,omitempty"`
	PeriodEnd time.Time    `json:"period_end"`
	FiledAt   time.Time    `json:"filed_at"`
	Accession string       `json:"accession"`
	Holdings  []RawHolding `json:"holdings"`
}
