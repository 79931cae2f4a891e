package digest

var fallbackBullets = []string{
	"Spot gold is still tracking the US dollar and expectations for Fed rate moves.",
	"USD/INR is the main reason local India prices can rise even when global gold is flat.",
	"Watch upcoming inflation data; higher inflation tends to support gold.",
	"For ornaments: 22K pricing = 24K × 0.916 + making + GST.",
}

// Fallback returns the fixed briefing served when live composition fails.
func Fallback(date string) Digest {
	bullets := append([]string(nil), fallbackBullets...)
	return Digest{
		Date:   date,
		Text:   renderText(date, bullets),
		HTML:   renderHTML(date, bullets),
		Source: SourceFallbackStatic,
	}
}
