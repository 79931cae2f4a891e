package market

import "github.com/bher20/golddigest/internal/upstream"

// Snapshot is the gold and FX reading used for one request. Both numbers are
// always populated; the Source fields say whether each came from the live
// upstream or the configured fallback.
type Snapshot struct {
	Timestamp  string              `json:"timestamp"`
	GoldUSD    float64             `json:"goldUsd"`
	USDINR     float64             `json:"usdInr"`
	GoldSource upstream.Provenance `json:"goldSource"`
	FXSource   upstream.Provenance `json:"fxSource"`
}

// Degraded reports whether any field fell back.
func (s Snapshot) Degraded() bool {
	return s.GoldSource != upstream.Live || s.FXSource != upstream.Live
}

// Headline is a news title and its publisher.
type Headline struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}
