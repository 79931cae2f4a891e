package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned when no text backend has credentials.
	ErrNotConfigured = errors.New("digest: no text generator configured")
	// ErrEmptyResponse is returned when the backend reply has no bullet lines.
	ErrEmptyResponse = errors.New("digest: generator returned no bullets")
)

const systemPrompt = "You are a concise gold market analyst writing for Indian retail investors. Use clear, simple English."

const dateLayout = "2006-01-02"

// Composer turns a market context into a bullet briefing via a Generator.
type Composer struct {
	gen Generator
	now func() time.Time
}

// NewComposer returns a composer. A nil generator is allowed; Compose then
// fails with ErrNotConfigured.
func NewComposer(gen Generator) *Composer {
	return &Composer{gen: gen, now: time.Now}
}

// Today returns the UTC calendar date used to label briefings.
func (c *Composer) Today() string {
	return c.now().UTC().Format(dateLayout)
}

// Compose asks the generator for a briefing and renders it as text and HTML.
func (c *Composer) Compose(ctx context.Context, marketContext string) (Brief, error) {
	if c.gen == nil {
		return Brief{}, ErrNotConfigured
	}
	date := c.Today()

	raw, err := c.gen.Generate(ctx, systemPrompt, buildPrompt(date, marketContext))
	if err != nil {
		return Brief{}, fmt.Errorf("%s generate: %w", c.gen.Name(), err)
	}

	bullets := ParseBullets(raw)
	if len(bullets) == 0 {
		return Brief{}, ErrEmptyResponse
	}
	return Brief{
		Date: date,
		Text: renderText(date, bullets),
		HTML: renderHTML(date, bullets),
	}, nil
}

func buildPrompt(date, marketContext string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Today is %s.\n\n", date)
	sb.WriteString("Here is a snapshot of the market:\n\n")
	sb.WriteString(marketContext)
	sb.WriteString("\n\nUsing this information, write a short \"Gold Market Briefing\" for Indian retail investors.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Output 4–5 bullet points.\n")
	sb.WriteString("- Focus on: what gold is doing, role of USD and USD/INR, inflation/rates, and a practical tip for jewellery buyers.\n")
	sb.WriteString("- Keep each bullet under 20 words.\n")
	sb.WriteString("- Do NOT mention that you are an AI or that this is a summary.\n")
	sb.WriteString("- Just output the bullets, each line starting with \"- \".")
	return sb.String()
}

// ParseBullets splits generator output into bullet bodies, dropping blank
// lines and any leading "-" or "•" marker.
func ParseBullets(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") {
			line = strings.TrimPrefix(line, "-")
		} else if strings.HasPrefix(line, "•") {
			line = strings.TrimPrefix(line, "•")
		}
		out = append(out, strings.TrimLeft(line, " \t"))
	}
	return out
}

var htmlEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

func renderText(date string, bullets []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🟡 Gold Market Briefing (%s)\n\n", date)
	for i, b := range bullets {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(b)
	}
	return sb.String()
}

func renderHTML(date string, bullets []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h3 class=\"font-semibold mb-2\">Gold Market Briefing (%s)</h3>\n", date)
	sb.WriteString("<ul class=\"list-disc pl-5 space-y-1\">\n")
	for _, b := range bullets {
		sb.WriteString("<li>")
		sb.WriteString(htmlEscaper.Replace(b))
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>")
	return sb.String()
}
