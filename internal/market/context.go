package market

import (
	"fmt"
	"strings"
)

// maxContextHeadlines bounds how many headlines reach the prompt.
const maxContextHeadlines = 3

// BuildContext renders the snapshot and headlines as the plain-text block
// handed to the generator. Output depends only on its inputs.
func BuildContext(s Snapshot, headlines []Headline) string {
	lines := []string{
		fmt.Sprintf("Spot gold (XAUUSD): %.2f USD/oz", s.GoldUSD),
		fmt.Sprintf("USD/INR: %.2f INR per USD", s.USDINR),
	}

	if len(headlines) > 0 {
		lines = append(lines, "", "Recent headlines (gold / inflation):")
		for i, h := range headlines {
			if i == maxContextHeadlines {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s (%s)", h.Title, h.Source))
		}
	}

	return strings.Join(lines, "\n")
}
