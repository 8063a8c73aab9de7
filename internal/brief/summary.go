package brief

import (
	"fmt"
	"strings"
)

// FormatSummary renders a brief as plain text, suitable for a
// notification body. It is a pure projection of BriefData: the same
// brief always renders to the same string.
func FormatSummary(d *BriefData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Brief for %s\n", d.GeneratedAt.Format("Mon Jan 2 15:04")))

	conflicts := 0
	for _, e := range d.Events {
		if e.Conflicts {
			conflicts++
		}
	}

	if len(d.Events) > 0 {
		sb.WriteString(fmt.Sprintf("\n%d upcoming event(s)", len(d.Events)))
		if conflicts > 0 {
			sb.WriteString(fmt.Sprintf(", %d with scheduling conflicts", conflicts))
		}
		sb.WriteString(":\n")
		for _, e := range d.Events {
			sb.WriteString(fmt.Sprintf("- %s–%s %s",
				e.Start.Format("15:04"),
				e.End.Format("15:04"),
				e.Title))
			if e.Conflicts {
				sb.WriteString(" [conflict]")
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("\nNo upcoming events.\n")
	}

	if len(d.TopEmails) > 0 {
		sb.WriteString(fmt.Sprintf("\nTop %d of %d email thread(s):\n",
			len(d.TopEmails), len(d.AllEmails)))
		for i, t := range d.TopEmails {
			sb.WriteString(fmt.Sprintf("%d. %s (%s", i+1, t.Subject, t.Importance))
			if t.Rationale != "" && t.Rationale != StandardPriorityRationale {
				sb.WriteString(": " + t.Rationale)
			}
			sb.WriteString(")\n")
		}
	} else {
		sb.WriteString("\nNo email threads in the window.\n")
	}

	return sb.String()
}
