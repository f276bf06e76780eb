// =============================================================================
// shiftpay - Report Printer
// =============================================================================
//
// This module prints the detected shifts and the weekly totals. Three layouts
// are available:
//
//   calendar : one block per shift, ending with a sentence that can be pasted
//              into a calendar app ("Work Shift on <day> from <a> to <b>")
//   table    : one line per shift ("<employer> shift on <day> at <a> to <b>")
//   grid     : a bordered table of day, time, hours, gross and net
//
// Every layout ends with the WEEKLY TOTALS block, or with a single "no
// shifts" line when nothing was found. Colours and bold text are applied
// through a lipgloss renderer bound to the output, so they disappear when the
// output is not a terminal.
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/ginjaninja78/shiftpay/internal/pay"
	"github.com/ginjaninja78/shiftpay/internal/types"
)

// Style selects a report layout.
type Style string

const (
	StyleCalendar Style = "calendar"
	StyleTable    Style = "table"
	StyleGrid     Style = "grid"
)

// Styles lists the valid layouts.
var Styles = []Style{StyleCalendar, StyleTable, StyleGrid}

// ParseStyle validates a layout name. Empty selects StyleCalendar.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleCalendar, nil
	}
	for _, st := range Styles {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown report style %q", s)
}

const ruleWidth = 40

// Printer writes reports to one output.
type Printer struct {
	w     io.Writer
	style Style

	title lipgloss.Style
	label lipgloss.Style
	quote lipgloss.Style
	alert lipgloss.Style
	head  lipgloss.Style
}

// NewPrinter returns a printer for w in the given layout.
func NewPrinter(w io.Writer, style Style) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		style: style,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label: r.NewStyle().Bold(true),
		quote: r.NewStyle().Foreground(lipgloss.Color("10")),
		alert: r.NewStyle().Foreground(lipgloss.Color("9")),
		head:  r.NewStyle().Bold(true).Padding(0, 1),
	}
}

// Print writes the whole report.
func (p *Printer) Print(rep *types.Report) error {
	var b strings.Builder

	if rep.Empty() {
		target := ""
		if rep != nil {
			target = rep.Target
		}
		b.WriteString(p.alert.Render(fmt.Sprintf("No colored shifts found for %s.", target)))
		b.WriteString("\n")
		_, err := io.WriteString(p.w, b.String())
		return err
	}

	switch p.style {
	case StyleTable:
		p.writeLines(&b, rep)
	case StyleGrid:
		p.writeGrid(&b, rep)
	default:
		p.writeCalendar(&b, rep)
	}
	p.writeTotals(&b, rep)

	_, err := io.WriteString(p.w, b.String())
	return err
}

// =============================================================================
// LAYOUTS
// =============================================================================

func (p *Printer) writeCalendar(b *strings.Builder, rep *types.Report) {
	for _, rec := range rep.Records {
		start, end := pay.FormatHour(rec.Span.Start), pay.FormatHour(rec.Span.End)
		fmt.Fprintf(b, "%s %s\n", p.label.Render("Event:"), "Work Shift")
		fmt.Fprintf(b, "    %s  %s\n", p.label.Render("Date:"), rec.Span.Day)
		fmt.Fprintf(b, "    %s  %s to %s\n", p.label.Render("Time:"), start, end)
		fmt.Fprintf(b, "    %s   %s\n", p.label.Render("Add:"),
			p.quote.Render(fmt.Sprintf("%q", CalendarSentence(rec.Span))))
		fmt.Fprintf(b, "   %s\n", strings.Repeat("-", ruleWidth))
	}
}

func (p *Printer) writeLines(b *strings.Builder, rep *types.Report) {
	employer := rep.Employer
	if employer == "" {
		employer = "Work"
	}
	for _, rec := range rep.Records {
		fmt.Fprintf(b, "%s shift on %s at %s to %s\n",
			employer, rec.Span.Day, pay.FormatHour(rec.Span.Start), pay.FormatHour(rec.Span.End))
	}
}

func (p *Printer) writeGrid(b *strings.Builder, rep *types.Report) {
	rows := make([][]string, 0, len(rep.Records))
	for _, rec := range rep.Records {
		rows = append(rows, []string{
			rec.Span.Day,
			pay.FormatHour(rec.Span.Start) + " - " + pay.FormatHour(rec.Span.End),
			strconv.Itoa(rec.Hours),
			pay.FormatMoney(rec.Gross),
			pay.FormatMoney(rec.Net),
		})
	}

	head := p.head
	cell := head.UnsetBold()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Day", "Time", "Hours", "Gross", "Net").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return head
			}
			return cell
		})

	b.WriteString(t.String())
	b.WriteString("\n")
}

func (p *Printer) writeTotals(b *strings.Builder, rep *types.Report) {
	b.WriteString("\n")
	b.WriteString(p.title.Render("WEEKLY TOTALS"))
	b.WriteString("\n")
	fmt.Fprintf(b, "• Hours: %d\n", rep.TotalHours)
	fmt.Fprintf(b, "• Gross: %s\n", pay.FormatMoney(rep.TotalGross))
	fmt.Fprintf(b, "• Net: %s\n", pay.FormatMoney(rep.TotalNet))
	b.WriteString(strings.Repeat("=", ruleWidth))
	b.WriteString("\n")
}

// CalendarSentence is the copy-paste line for calendar apps.
func CalendarSentence(span types.ShiftSpan) string {
	return fmt.Sprintf("Work Shift on %s from %s to %s",
		span.Day, pay.FormatHour(span.Start), pay.FormatHour(span.End))
}
