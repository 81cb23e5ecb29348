// Package render turns lint findings and expanded matrices into terminal
// and file representations.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sbpy-tools/sbforge/internal/domain/services"
)

// ReportRenderer renders lint findings for a terminal. With plain set the
// output carries no styling, for CI logs and piping.
type ReportRenderer struct {
	plain bool

	ruleStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	okStyle      lipgloss.Style
	locStyle     lipgloss.Style
}

// NewReportRenderer creates a renderer.
func NewReportRenderer(plain bool) *ReportRenderer {
	return &ReportRenderer{
		plain:        plain,
		ruleStyle:    lipgloss.NewStyle().Bold(true),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		warningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		okStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		locStyle:     lipgloss.NewStyle().Faint(true),
	}
}

// Render returns the findings as one line each plus a summary line.
func (r *ReportRenderer) Render(findings []services.Finding) string {
	var b strings.Builder

	errs, warns := 0, 0
	for _, f := range findings {
		severity := string(f.Severity)
		switch f.Severity {
		case services.SeverityError:
			errs++
			severity = r.style(r.errorStyle, severity)
		case services.SeverityWarning:
			warns++
			severity = r.style(r.warningStyle, severity)
		}
		fmt.Fprintf(&b, "%s %s %s: %s\n",
			severity,
			r.style(r.ruleStyle, f.Rule),
			r.style(r.locStyle, f.Location),
			f.Message)
	}

	switch {
	case len(findings) == 0:
		b.WriteString(r.style(r.okStyle, "ok") + ": no findings\n")
	default:
		fmt.Fprintf(&b, "%d error(s), %d warning(s)\n", errs, warns)
	}

	return b.String()
}

func (r *ReportRenderer) style(s lipgloss.Style, text string) string {
	if r.plain {
		return text
	}
	return s.Render(text)
}
