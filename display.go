package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/raine/fashion-analyzer/internal/fashion"
	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/rs/zerolog/log"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	unknownStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

func formatOptional(s *string) string {
	if s == nil {
		return unknownStyle.Render("unknown")
	}
	return *s
}

func printReport(w io.Writer, dir string, report *fashion.Report) {
	item := report.Result.Item

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Analyzed %d images in %s", len(report.Files), dir)))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Item type:"), item.ItemType)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Size:     "), formatOptional(item.Size))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Brand:    "), formatOptional(item.Brand))
	fmt.Fprintln(w)

	if report.Result.Cached {
		fmt.Fprintln(w, labelStyle.Render("(cached result)"))
		return
	}
	usage := report.Result.Usage
	fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("Tokens: %d in / %d out / %d total, cost $%.6f",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens, usage.CostUSD)))
}

// printError reports err to the user. Directory problems get their own
// message since the user can fix them by choosing another directory.
func printError(w io.Writer, err error) {
	log.Debug().Err(err).Msg("run failed")
	if images.IsDirectoryError(err) {
		fmt.Fprintf(w, "%s %v\n", errorStyle.Render("directory error:"), err)
		return
	}
	fmt.Fprintf(w, "%s %v\n", errorStyle.Render("analysis failed:"), err)
}
