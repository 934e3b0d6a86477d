// Package render writes a run's report as JSON or as styled terminal text.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deusflow/headlinegroups/internal/news"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewReport assembles the result document. An empty topic reads as "all".
func NewReport(date, topic string, lastWeek bool, groups []news.TopicGroup) news.Report {
	if topic == "" {
		topic = "all"
	}
	period := "today"
	if lastWeek {
		period = "last week"
	}
	if groups == nil {
		groups = []news.TopicGroup{}
	}
	r := news.Report{
		Date:         date,
		Topic:        topic,
		IsLastWeek:   lastWeek,
		TimePeriod:   period,
		CommonTopics: groups,
		TotalGroups:  len(groups),
	}
	for _, g := range groups {
		r.TotalHeadlines += g.Count
	}
	return r
}

// Write renders r in the named format.
func Write(w io.Writer, format string, r news.Report) error {
	switch format {
	case "", FormatJSON:
		return JSON(w, r)
	case FormatText:
		return Text(w, r)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func JSON(w io.Writer, r news.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	sourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// Text writes a human-readable listing of the groups.
func Text(w io.Writer, r news.Report) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Common topics: %s, %s (%s)", r.Topic, r.TimePeriod, r.Date)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d groups, %d headlines", r.TotalGroups, r.TotalHeadlines)))
	b.WriteString("\n")

	if len(r.CommonTopics) == 0 {
		b.WriteString("\nNo common topics found.\n")
	}

	for _, g := range r.CommonTopics {
		b.WriteString("\n")
		b.WriteString(groupStyle.Render(fmt.Sprintf("%d. %s", g.ID, g.Name)))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d headlines from %d sources", g.Count, g.SourceCount)))
		b.WriteString("\n")

		if g.Image != nil {
			switch {
			case g.Image.Result != nil:
				b.WriteString(dimStyle.Render("   image: " + g.Image.Result.URL))
				b.WriteString("\n")
			case g.Image.Err != nil:
				b.WriteString(dimStyle.Render("   no image: " + g.Image.Err.Message))
				b.WriteString("\n")
			}
		}

		for _, h := range g.Headlines {
			b.WriteString("   ")
			b.WriteString(sourceStyle.Render(h.Source))
			b.WriteString("  ")
			b.WriteString(h.Title)
			if h.Time != "" {
				b.WriteString(" " + dimStyle.Render(h.Time))
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
