package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/madhurranjan/vagrant-aws/internal/orchestration"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorDim    = lipgloss.Color("#6b7280")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	failStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// renderSummary produces one block per attempt, ordered by machine name.
// Nil results are skipped.
func renderSummary(results []*orchestration.Result) string {
	sorted := make([]*orchestration.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return ""
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Machine < sorted[j].Machine })

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Machines"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")

	for _, r := range sorted {
		b.WriteString(fmt.Sprintf("  %-16s %s", r.Machine, renderState(r)))
		if r.Instance.ID != "" {
			b.WriteString("  " + r.Instance.ID)
		}
		if ip := r.Instance.PublicIP; ip != "" {
			b.WriteString("  " + ip)
		}
		b.WriteString("\n")
		if len(r.Metrics) > 0 {
			b.WriteString(dimStyle.Render("    " + renderMetrics(r.Metrics)))
			b.WriteString("\n")
		}
		for _, w := range r.Warnings {
			b.WriteString(warnStyle.Render("    ! " + w))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderState(r *orchestration.Result) string {
	state := string(r.Instance.State)
	switch {
	case r.AlreadyCreated:
		return dimStyle.Render("already created")
	case r.Interrupted:
		return warnStyle.Render("interrupted")
	case r.Instance.State == provisioning.StateReady:
		return okStyle.Render(state)
	case r.Instance.State == provisioning.StateReadyWithErrors:
		return warnStyle.Render(state)
	default:
		return failStyle.Render(state)
	}
}

func renderMetrics(metrics map[string]time.Duration) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, metrics[name].Round(time.Millisecond)))
	}
	return strings.Join(parts, " ")
}
