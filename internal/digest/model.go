package digest

import "github.com/bher20/golddigest/internal/upstream"

// Source labels where a digest's bullets came from.
type Source string

const (
	SourceAI             Source = "ai"
	SourceFallbackStatic Source = "fallback-static"
)

// Digest is the payload served by the digest endpoint and mailed by the
// distributor.
type Digest struct {
	Date    string      `json:"date"`
	Text    string      `json:"text"`
	HTML    string      `json:"html"`
	Source  Source      `json:"source"`
	Version string      `json:"version,omitempty"`
	Market  *MarketInfo `json:"market,omitempty"`
}

// MarketInfo echoes the numbers the digest was written from.
type MarketInfo struct {
	GoldUSD    float64             `json:"goldUsd"`
	USDINR     float64             `json:"usdInr"`
	GoldSource upstream.Provenance `json:"goldSource,omitempty"`
	FXSource   upstream.Provenance `json:"fxSource,omitempty"`
}

// Brief is the composer's output before it is labelled as a Digest.
type Brief struct {
	Date string
	Text string
	HTML string
}
