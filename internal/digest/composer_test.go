package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

type stubGenerator struct {
	reply  string
	err    error
	system string
	prompt string
	calls  int
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.calls++
	g.system = system
	g.prompt = prompt
	return g.reply, g.err
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
}

func TestParseBullets(t *testing.T) {
	got := ParseBullets("  - Gold steady\n\n• Rupee weak\nplain line\n-   spaced out\n")
	assert.Equal(t, []string{"Gold steady", "Rupee weak", "plain line", "spaced out"}, got)
	assert.Equal(t, 0, len(ParseBullets("\n  \n")))
}

func TestCompose_RendersTextAndHTML(t *testing.T) {
	gen := &stubGenerator{reply: "- Gold < $2,700 > support\n- Rupee soft"}
	c := NewComposer(gen)
	c.now = fixedClock

	brief, err := c.Compose(context.Background(), "CTX")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// the clock is in IST; briefings are labelled with the UTC date
	assert.Equal(t, "2025-03-14", brief.Date)
	assert.Equal(t, "🟡 Gold Market Briefing (2025-03-14)\n\n- Gold < $2,700 > support\n- Rupee soft", brief.Text)
	assert.Equal(t, "<h3 class=\"font-semibold mb-2\">Gold Market Briefing (2025-03-14)</h3>\n"+
		"<ul class=\"list-disc pl-5 space-y-1\">\n"+
		"<li>Gold &lt; $2,700 &gt; support</li>\n"+
		"<li>Rupee soft</li>\n"+
		"</ul>", brief.HTML)

	assert.Equal(t, systemPrompt, gen.system)
	if !strings.HasPrefix(gen.prompt, "Today is 2025-03-14.") {
		t.Errorf("prompt should start with the date, got %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "\n\nCTX\n\n") {
		t.Errorf("prompt should embed the market context, got %q", gen.prompt)
	}
}

func TestCompose_Errors(t *testing.T) {
	_, err := NewComposer(nil).Compose(context.Background(), "CTX")
	assert.Equal(t, true, errors.Is(err, ErrNotConfigured))

	boom := errors.New("boom")
	_, err = NewComposer(&stubGenerator{err: boom}).Compose(context.Background(), "CTX")
	assert.Equal(t, true, errors.Is(err, boom))

	_, err = NewComposer(&stubGenerator{reply: " \n \n"}).Compose(context.Background(), "CTX")
	assert.Equal(t, true, errors.Is(err, ErrEmptyResponse))
}

func TestFallback(t *testing.T) {
	d := Fallback("2025-03-14")

	assert.Equal(t, SourceFallbackStatic, d.Source)
	assert.Equal(t, "2025-03-14", d.Date)
	if !strings.Contains(d.Text, "24K × 0.916") || !strings.Contains(d.HTML, "24K × 0.916") {
		t.Errorf("fallback should carry the ornament pricing rule: %q", d.Text)
	}
	if strings.Count(d.Text, "\n- ") != len(fallbackBullets) {
		t.Errorf("expected %d bullets in text, got %q", len(fallbackBullets), d.Text)
	}
	assert.Equal(t, len(fallbackBullets), strings.Count(d.HTML, "<li>"))
}
