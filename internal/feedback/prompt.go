package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/timeline"
)

// toneInstruction maps each feedback mode to the voice the retrospective
// should be written in.
func toneInstruction(mode models.FeedbackMode) string {
	switch mode {
	case models.FeedbackModeGentle:
		return "Use a warm, encouraging tone. Focus on what went well and frame problems softly."
	case models.FeedbackModeStrict:
		return "Use a direct, demanding tone. Point out wasted time plainly and push for concrete improvement."
	default:
		return "Use a balanced, matter-of-fact tone."
	}
}

// BuildPrompt renders the day's planned and actual activity into the prompt
// sent to the model. Times are formatted in the given location.
func BuildPrompt(date models.Date, view *timeline.RangeView, mode models.FeedbackMode, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a personal time-management coach reviewing one day of a user's time log.\n")
	fmt.Fprintf(&b, "Date: %s\n\n", date)

	b.WriteString("Planned schedule:\n")
	if len(view.Planned) == 0 {
		b.WriteString("(none)\n")
	}
	for _, p := range view.Planned {
		fmt.Fprintf(&b, "- %s - %s: [%s] %s\n",
			p.StartAt.In(loc).Format("15:04"),
			p.EndAt.In(loc).Format("15:04"),
			p.Category.Name,
			p.Activity,
		)
	}

	b.WriteString("\nActual activity:\n")
	if len(view.Logs) == 0 {
		b.WriteString("(none)\n")
	}
	for _, l := range view.Logs {
		end := "now"
		if l.EndAt != nil {
			end = l.EndAt.In(loc).Format("15:04")
		}
		name := ""
		if l.Category != nil {
			name = l.Category.Name
		}
		fmt.Fprintf(&b, "- %s - %s: [%s] %s\n",
			l.StartAt.In(loc).Format("15:04"),
			end,
			name,
			l.Activity,
		)
	}

	b.WriteString("\nWrite a KPT (Keep, Problem, Try) retrospective for this day.\n")
	b.WriteString(toneInstruction(mode))
	b.WriteString("\nRespond in the requested JSON format only.")
	return b.String()
}
