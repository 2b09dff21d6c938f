package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/engine"
	"github.com/shaiso/Trinity/internal/steps"
)

// stepKinds — подписи и цвета типов шагов.
var stepKinds = steps.DefaultRegistry()

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
	laneStyle  = lipgloss.NewStyle().Bold(true).Width(5).Foreground(lipgloss.Color("12"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	stepStyle           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginRight(1)
	unresolvedStepStyle = stepStyle.BorderForeground(lipgloss.Color("11"))
)

// RenderSwimlanes рисует раскладку: одна строка на уровень, шаги уровня
// рядом слева направо в порядке объявления.
func RenderSwimlanes(p *PreviewResponse) string {
	var b strings.Builder

	if title := previewTitle(p); title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n\n")
	}

	if p.Error != "" {
		b.WriteString(errorStyle.Render("parse error: "))
		b.WriteString(p.Error)
		b.WriteString("\n")
		return b.String()
	}

	if len(p.Groups) == 0 {
		b.WriteString(mutedStyle.Render("no steps"))
		b.WriteString("\n")
		return b.String()
	}

	types := make(map[string]string, len(p.Steps))
	for _, s := range p.Steps {
		if _, ok := types[s.ID]; !ok {
			types[s.ID] = s.Type
		}
	}
	unresolved := make(map[string]bool, len(p.Unresolved))
	for _, d := range p.Unresolved {
		unresolved[d.StepID] = true
	}

	for _, g := range p.Groups {
		boxes := make([]string, 0, len(g.Steps))
		for _, id := range g.Steps {
			kind := stepKinds.Lookup(domain.StepType(types[id]))
			style := stepStyle.BorderForeground(lipgloss.Color(kind.Color))
			if unresolved[id] {
				style = unresolvedStepStyle
			}
			boxes = append(boxes, style.Render(id+"\n"+mutedStyle.Render(kind.Label)))
		}

		label := laneStyle.Render(fmt.Sprintf("L%d", g.Level))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, label, lipgloss.JoinHorizontal(lipgloss.Top, boxes...)))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d steps, %d levels, max %d in parallel",
		p.Stats.StepCount, p.Stats.LevelCount, p.Stats.MaxParallel)))
	b.WriteString("\n")

	if len(p.Unresolved) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("unresolved steps (shown on level 0):"))
		b.WriteString("\n")
		for _, d := range p.Unresolved {
			b.WriteString("  - " + describeDiagnostic(d) + "\n")
		}
	}

	if p.ScheduleError != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("schedule: " + p.ScheduleError))
		b.WriteString("\n")
	}
	if len(p.NextFireTimes) > 0 {
		b.WriteString("\nnext runs:\n")
		for _, t := range p.NextFireTimes {
			b.WriteString("  " + t.UTC().Format(time.RFC3339) + "\n")
		}
	}

	return b.String()
}

func previewTitle(p *PreviewResponse) string {
	switch {
	case p.Name != "" && p.Version != "":
		return p.Name + " " + p.Version
	default:
		return p.Name
	}
}

func describeDiagnostic(d engine.Diagnostic) string {
	switch {
	case len(d.Missing) > 0:
		return fmt.Sprintf("%s: %s (%s)", d.StepID, d.Reason, strings.Join(d.Missing, ", "))
	case len(d.BlockedBy) > 0:
		return fmt.Sprintf("%s: %s by %s", d.StepID, d.Reason, strings.Join(d.BlockedBy, ", "))
	default:
		return fmt.Sprintf("%s: %s", d.StepID, d.Reason)
	}
}
