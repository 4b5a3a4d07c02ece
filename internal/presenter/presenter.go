// Package presenter renders projections as terminal text: dotted ledgers
// and pipe-separated tables, with negative amounts in red on a terminal.
package presenter

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"budgie/internal/core"
)

const (
	red   = "\x1b[91m"
	reset = "\x1b[39m"
)

var colorCodes = regexp.MustCompile(`\x1b\[\d+m`)

// Align is the horizontal alignment of a table column.
type Align int

const (
	Left Align = iota
	Right
)

// Column describes one table column.
type Column struct {
	Title string
	Align Align
}

// Row is one line of a ledger view.
type Row struct {
	Key   string
	Value string
}

// Presenter writes formatted output to a writer.
type Presenter struct {
	w       io.Writer
	printer *message.Printer
	color   bool
}

// New creates a presenter. Color is enabled when w is a terminal.
func New(w io.Writer) *Presenter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Presenter{
		w:       w,
		printer: message.NewPrinter(language.English),
		color:   color,
	}
}

// WithColor forces color on or off.
func (p *Presenter) WithColor(on bool) *Presenter {
	p.color = on
	return p
}

// WithLanguage switches number formatting to another locale.
func (p *Presenter) WithLanguage(tag language.Tag) *Presenter {
	p.printer = message.NewPrinter(tag)
	return p
}

// Money formats an amount with grouping and two decimals.
func (p *Presenter) Money(m core.Money) string {
	abs := m.Cents
	if abs < 0 {
		abs = -abs
	}
	s := p.printer.Sprintf("%d.%02d", abs/100, abs%100)
	if m.IsNegative() {
		s = "-" + s
		if p.color {
			s = red + s + reset
		}
	}
	return s
}

// OptionalMoney formats m, or "none" when the schedule has ended.
func (p *Presenter) OptionalMoney(m *core.Money) string {
	if m == nil {
		return "none"
	}
	return p.Money(*m)
}

// Println writes a single line.
func (p *Presenter) Println(a ...any) error {
	_, err := fmt.Fprintln(p.w, a...)
	return err
}

// Ledger writes a titled list of key/value pairs, keys padded with dots and
// values right-aligned.
func (p *Presenter) Ledger(title string, rows []Row) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s:\n", title)

	keyWidth, valueWidth := 0, 0
	for _, r := range rows {
		keyWidth = max(keyWidth, width(r.Key))
		valueWidth = max(valueWidth, width(r.Value))
	}
	keyWidth += 2

	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(pad(r.Key, keyWidth, '.'))
		b.WriteString(leftpad(r.Value, valueWidth, '.'))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Table writes a titled table with a header and a dashed separator.
func (p *Presenter) Table(title string, columns []Column, rows [][]string) error {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = width(c.Title)
	}
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				widths[i] = max(widths[i], width(row[i]))
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n\n", title)

	header := make([]string, len(columns))
	dashes := make([]string, len(columns))
	for i, c := range columns {
		header[i] = align(c.Title, widths[i], c.Align)
		dashes[i] = strings.Repeat("-", widths[i])
	}
	b.WriteString(strings.Join(header, " | "))
	b.WriteByte('\n')
	b.WriteString(strings.Join(dashes, "-|-"))
	b.WriteByte('\n')

	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = align(cell, widths[i], c.Align)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " | "), " "))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func width(s string) int {
	return utf8.RuneCountInString(colorCodes.ReplaceAllString(s, ""))
}

func pad(s string, n int, fill rune) string {
	if w := width(s); w < n {
		return s + strings.Repeat(string(fill), n-w)
	}
	return s
}

func leftpad(s string, n int, fill rune) string {
	if w := width(s); w < n {
		return strings.Repeat(string(fill), n-w) + s
	}
	return s
}

func align(s string, n int, a Align) string {
	if a == Right {
		return leftpad(s, n, ' ')
	}
	return pad(s, n, ' ')
}
