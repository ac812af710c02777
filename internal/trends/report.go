package trends

import (
	"fmt"
	"strings"
)

// rankMarkers decorate the top entries of a published report.
var rankMarkers = []string{"🥇", "🥈", "🥉"}

const ellipsis = "…"

// BuildReport renders a human-readable trend summary suitable for
// publication: a ranked list with rank markers, optional category tags,
// a provenance disclosure when the list is synthetic, and a closing
// signature. The result is truncated rune-safely to limit characters.
func BuildReport(list []Trend, signature string, limit int) string {
	if len(list) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("📈 Emerging trends right now:\n\n")

	synthetic := false
	for i, t := range list {
		marker := fmt.Sprintf("%d.", i+1)
		if i < len(rankMarkers) {
			marker = rankMarkers[i]
		}
		fmt.Fprintf(&sb, "%s %s (+%.0f%%)", marker, t.Term, t.GrowthRate)
		if t.Category != "" {
			fmt.Fprintf(&sb, " [%s]", t.Category)
		}
		sb.WriteString("\n")
		if t.IsSynthetic {
			synthetic = true
		}
	}

	if synthetic {
		sb.WriteString("\n(projected — low data volume this cycle)\n")
	}
	if signature != "" {
		sb.WriteString("\n" + signature)
	}

	return Truncate(sb.String(), limit)
}

// Truncate shortens s to at most limit characters (runes, not bytes),
// replacing the tail with an ellipsis marker when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return ellipsis
	}
	return string(runes[:limit-1]) + ellipsis
}
