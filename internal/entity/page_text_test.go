package entity

import (
	"reflect"
	"testing"
)

func TestPageText_Append(t *testing.T) {
	t.Run("keeps first-seen page order", func(t *testing.T) {
		m := NewPageText()
		m.Append(2, "b1")
		m.Append(1, "a1")
		m.Append(2, "b2")

		pages := m.Pages()
		if len(pages) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(pages))
		}
		if pages[0].Page != 2 || pages[1].Page != 1 {
			t.Errorf("unexpected page order: %d, %d", pages[0].Page, pages[1].Page)
		}
		if !reflect.DeepEqual(pages[0].Lines, []string{"b1", "b2"}) {
			t.Errorf("unexpected lines for page 2: %v", pages[0].Lines)
		}
	})

	t.Run("counts lines", func(t *testing.T) {
		m := NewPageText()
		m.Append(1, "x")
		m.Append(1, "y")
		m.Append(3, "z")
		if m.Len() != 2 {
			t.Errorf("expected 2 pages, got %d", m.Len())
		}
		if m.LineCount() != 3 {
			t.Errorf("expected 3 lines, got %d", m.LineCount())
		}
	})

	t.Run("pages returns a copy", func(t *testing.T) {
		m := NewPageText()
		m.Append(1, "original")
		pages := m.Pages()
		pages[0].Lines[0] = "mutated"

		lines, ok := m.Lines(1)
		if !ok || lines[0] != "original" {
			t.Errorf("mapping was mutated through Pages(): %v", lines)
		}
	})

	t.Run("missing page", func(t *testing.T) {
		m := NewPageText()
		if _, ok := m.Lines(7); ok {
			t.Error("expected page 7 to be absent")
		}
	})
}

func TestPageLines_Text(t *testing.T) {
	p := PageLines{Page: 1, Lines: []string{"first", "second"}}
	if got := p.Text(); got != "first\nsecond" {
		t.Errorf("expected joined text, got %q", got)
	}
}

func TestBlock_IsLine(t *testing.T) {
	tests := []struct {
		blockType string
		want      bool
	}{
		{"LINE", true},
		{"WORD", false},
		{"PAGE", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (Block{BlockType: tt.blockType}).IsLine(); got != tt.want {
			t.Errorf("IsLine(%q) = %v, want %v", tt.blockType, got, tt.want)
		}
	}
}
