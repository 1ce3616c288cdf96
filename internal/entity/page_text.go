package entity

import (
	"strings"

	"github.com/joseph-ayodele/textract-sheets/constants"
)

// PageLines is one row of the result: a page number and its lines in service order.
type PageLines struct {
	Page  int
	Lines []string
}

// Text joins the lines for the Text column.
func (p PageLines) Text() string {
	return strings.Join(p.Lines, constants.LineSeparator)
}

// PageText maps page numbers to lines, keeping first-seen page order.
// The zero value is not usable; call NewPageText.
type PageText struct {
	pages []PageLines
	index map[int]int
}

func NewPageText() *PageText {
	return &PageText{index: make(map[int]int)}
}

// Append adds a line to a page, creating the page entry on first sight.
func (m *PageText) Append(page int, line string) {
	i, ok := m.index[page]
	if !ok {
		m.pages = append(m.pages, PageLines{Page: page})
		i = len(m.pages) - 1
		m.index[page] = i
	}
	m.pages[i].Lines = append(m.pages[i].Lines, line)
}

// Lines returns the lines recorded for page.
func (m *PageText) Lines(page int) ([]string, bool) {
	i, ok := m.index[page]
	if !ok {
		return nil, false
	}
	return append([]string(nil), m.pages[i].Lines...), true
}

// Pages returns a copy of every entry in insertion order.
func (m *PageText) Pages() []PageLines {
	out := make([]PageLines, len(m.pages))
	for i, p := range m.pages {
		out[i] = PageLines{Page: p.Page, Lines: append([]string(nil), p.Lines...)}
	}
	return out
}

// Len is the number of pages.
func (m *PageText) Len() int {
	return len(m.pages)
}

// LineCount is the number of lines across all pages.
func (m *PageText) LineCount() int {
	n := 0
	for _, p := range m.pages {
		n += len(p.Lines)
	}
	return n
}
