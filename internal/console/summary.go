package console

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mailtriage/internal/model"
	"mailtriage/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Width(30)
	countStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderSummary formats the per-status counts of a finished batch.
func RenderSummary(s *service.BatchSummary) string {
	var rows []string
	rows = append(rows, titleStyle.Render(fmt.Sprintf("Processed %d email(s)", len(s.Records))))
	if s.RunID != "" {
		rows = append(rows, "run "+s.RunID)
	}

	statuses := make([]string, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		n := s.ByStatus[model.ResponseStatus(status)]
		rows = append(rows, labelStyle.Render(status)+countStyle.Render(fmt.Sprint(n)))
	}

	return boxStyle.Render(strings.Join(rows, "\n"))
}
