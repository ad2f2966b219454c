package kpi

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders KPI values with the separators of one locale.
type Formatter struct {
	p *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// German is the formatter used by the dashboard.
var German = NewFormatter(language.German)

// Percent renders a ratio (0.25) as "25,0 %".
func (f *Formatter) Percent(ratio float64) string {
	return f.p.Sprintf("%.1f %%", ratio*100)
}

func (f *Formatter) Count(n int) string {
	return f.p.Sprintf("%d", n)
}

// Units always shows two decimals.
func (f *Formatter) Units(v float64) string {
	return f.p.Sprintf("%.2f", v)
}

func (f *Formatter) Hours(v float64) string {
	return f.p.Sprintf("%.1f h", v)
}
