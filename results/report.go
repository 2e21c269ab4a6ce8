package results

import (
	"fmt"
	"strings"
)

// Markdown renders r as a markdown report.
func Markdown(r Results) string {
	var b strings.Builder
	s := r.Summary

	b.WriteString("# Session Complete\n\n")
	if r.Placeholder {
		b.WriteString("_No finished session to show. These are sample results._\n\n")
	}
	fmt.Fprintf(&b, "- **Focus score:** %d%%\n", s.FocusScore)
	fmt.Fprintf(&b, "- **Tasks completed:** %d of %d\n", s.TasksCompleted, s.TotalTasks)
	fmt.Fprintf(&b, "- **Total time:** %d min (focus %d, break %d)\n", s.TotalTime, s.FocusTime, s.BreakTime)
	if s.Status != "" {
		fmt.Fprintf(&b, "- **Status:** %s\n", s.Status)
	}
	fmt.Fprintf(&b, "- **Coins earned:** %d\n\n", r.CoinsEarned)

	b.WriteString("## Achievements\n\n")
	unlocked := 0
	for _, badge := range r.Badges {
		mark := "[ ]"
		if badge.Unlocked {
			mark = "[x]"
			unlocked++
		}
		fmt.Fprintf(&b, "- %s **%s** (%s): %s\n", mark, badge.Name, badge.Rarity, badge.Description)
	}
	if unlocked > 0 {
		plural := ""
		if unlocked > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "\n%d achievement%s unlocked!\n", unlocked, plural)
	}

	b.WriteString("\n## Recommendations\n\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- **%s** %s\n", rec.Title, rec.Description)
	}
	return b.String()
}
