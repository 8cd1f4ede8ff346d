// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/llamagraph/llamagraph/internal/graph"
	"github.com/llamagraph/llamagraph/internal/query"
)

const banner = `🦙 LlamaGraph`

// Banner renders the startup banner.
func Banner(version string) string {
	return BannerStyle.Render(fmt.Sprintf("%s %s — knowledge graphs from text", banner, version))
}

// Renderer turns query results into styled terminal output. With Plain
// set, lipgloss styling still runs but collapses to no-ops when the
// profile is ASCII; Plain additionally drops decorative borders.
type Renderer struct {
	Plain bool
}

// Result renders any query result for display.
func (r Renderer) Result(res query.Result) string {
	var b strings.Builder

	if res.Ok {
		b.WriteString(SuccessStyle.Render(res.Message))
	} else {
		b.WriteString(ErrorStyle.Render(res.Message))
	}

	switch data := res.Data.(type) {
	case query.FindResult:
		b.WriteString("\n")
		b.WriteString(r.find(data))
	case query.PathResult:
		b.WriteString("\n")
		b.WriteString(r.path(data))
	case query.RelatedResult:
		b.WriteString("\n")
		b.WriteString(r.related(data))
	case query.CountResult:
		b.WriteString("\n")
		b.WriteString(r.counts(data))
	case []query.HelpEntry:
		b.WriteString("\n")
		b.WriteString(r.help(data))
	}
	return b.String()
}

func (r Renderer) find(data query.FindResult) string {
	e := data.Entity
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s  %s\n",
		LabelStyle.Render("entity:"),
		HeaderStyle.Render(e.DisplayName),
		TypeStyle(e.Type).Render("["+string(e.Type)+"]"),
	)
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("aliases:"), strings.Join(e.Aliases, ", "))
	fmt.Fprintf(&b, "%s %d\n", LabelStyle.Render("occurrences:"), e.Occurrences)

	if len(data.Relations) == 0 {
		b.WriteString(HintStyle.Render("No relations."))
		return b.String()
	}

	rows := make([][]string, 0, len(data.Relations))
	for _, in := range data.Relations {
		rows = append(rows, []string{string(in.Direction), in.Relation.Predicate, in.Other})
	}
	b.WriteString(r.table([]string{"Direction", "Relation", "Entity"}, rows))
	return b.String()
}

func (r Renderer) path(data query.PathResult) string {
	if len(data.Hops) == 0 {
		return HintStyle.Render("Zero-length path: both names resolve to the same entity.")
	}

	parts := make([]string, 0, len(data.Hops)*2+1)
	parts = append(parts, HeaderStyle.Render(data.Hops[0].From))
	for _, hop := range data.Hops {
		arrow := "—" + hop.Predicate + "→"
		if hop.Direction == graph.DirectionIncoming {
			arrow = "←" + hop.Predicate + "—"
		}
		parts = append(parts, HintStyle.Render(arrow), HeaderStyle.Render(hop.To))
	}
	return strings.Join(parts, " ")
}

func (r Renderer) related(data query.RelatedResult) string {
	if len(data.Groups) == 0 {
		return HintStyle.Render("No neighbors.")
	}
	var rows [][]string
	for _, g := range data.Groups {
		rows = append(rows, []string{g.Predicate, strings.Join(g.Entities, ", ")})
	}
	return r.table([]string{"Relation", "Entities"}, rows)
}

func (r Renderer) counts(data query.CountResult) string {
	keys := make([]string, 0, len(data.Counts))
	for k := range data.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys)+1)
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%d", data.Counts[k])})
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", data.Total)})
	return r.table([]string{"Kind", "Count"}, rows)
}

func (r Renderer) help(entries []query.HelpEntry) string {
	var rows [][]string
	for _, e := range entries {
		rows = append(rows, []string{e.Command, e.Description})
	}
	return r.table([]string{"Command", "Description"}, rows)
}

// Summary renders graph-level statistics after processing.
func (r Renderer) Summary(s graph.GraphSummary) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Knowledge graph summary"))
	fmt.Fprintf(&b, "\n%s %d   %s %d\n",
		LabelStyle.Render("entities:"), s.NumEntities,
		LabelStyle.Render("relations:"), s.NumRelations,
	)

	if len(s.MostConnected) > 0 {
		rows := make([][]string, 0, len(s.MostConnected))
		for _, c := range s.MostConnected {
			rows = append(rows, []string{
				c.Name,
				TypeStyle(c.Type).Render(string(c.Type)),
				fmt.Sprintf("%d", c.Connections),
			})
		}
		b.WriteString(r.table([]string{"Entity", "Type", "Connections"}, rows))
	}
	return b.String()
}

func (r Renderer) table(headers []string, rows [][]string) string {
	if r.Plain {
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "  "))
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	return table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}
