package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"mailtriage/internal/model"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Reviewer shows a flagged reply and lets the operator edit it before it
// is drafted.
type Reviewer struct {
	out  io.Writer
	edit func(ctx context.Context, title, message string) (string, error)
}

func NewReviewer(out io.Writer) *Reviewer {
	return &Reviewer{out: out, edit: editInForm}
}

func (r *Reviewer) Review(ctx context.Context, email model.Email, message string) (string, error) {
	title := fmt.Sprintf("Review reply to %s: %s", email.SenderEmail, email.Subject)
	edited, err := r.edit(ctx, title, message)
	if err != nil {
		return "", err
	}
	edited = strings.TrimSpace(edited)
	if edited == "" {
		return message, nil
	}
	if edited != message {
		fmt.Fprintln(r.out, headerStyle.Render("Changes:"))
		fmt.Fprintln(r.out, RenderDiff(message, edited))
	}
	return edited, nil
}

func editInForm(ctx context.Context, title, message string) (string, error) {
	value := message
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				Description("Edit the reply; leave it unchanged to accept").
				Lines(12).
				Value(&value),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("review form: %w", err)
	}
	return value, nil
}

// RenderDiff renders a line diff with +/- markers.
func RenderDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	for _, d := range diffs {
		lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				b.WriteString(addedStyle.Render("+ " + line))
			case diffmatchpatch.DiffDelete:
				b.WriteString(removedStyle.Render("- " + line))
			default:
				b.WriteString(contextStyle.Render("  " + line))
			}
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
