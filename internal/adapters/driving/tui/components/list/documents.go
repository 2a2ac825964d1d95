// Package list provides the document list component.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/refchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refchat/internal/core/domain"
)

// Documents is a navigable library list with multi-select.
// Chosen documents keep the order in which they were chosen.
type Documents struct {
	entries []domain.LibraryEntry
	chosen  []domain.Citekey
	cursor  int
	offset  int
	height  int
	width   int
	styles  *styles.Styles
}

// NewDocuments creates an empty document list.
func NewDocuments(s *styles.Styles) *Documents {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Documents{
		styles: s,
		height: 10,
		width:  80,
	}
}

// SetEntries replaces the list contents.
// Chosen documents missing from the new entries are dropped.
func (d *Documents) SetEntries(entries []domain.LibraryEntry) {
	d.entries = entries
	d.cursor = 0
	d.offset = 0

	present := make(map[domain.Citekey]bool, len(entries))
	for _, e := range entries {
		present[e.Citekey] = true
	}
	kept := d.chosen[:0]
	for _, ck := range d.chosen {
		if present[ck] {
			kept = append(kept, ck)
		}
	}
	d.chosen = kept
}

// Len returns the number of entries.
func (d *Documents) Len() int {
	return len(d.entries)
}

// Current returns the entry under the cursor.
func (d *Documents) Current() (domain.LibraryEntry, bool) {
	if d.cursor < 0 || d.cursor >= len(d.entries) {
		return domain.LibraryEntry{}, false
	}
	return d.entries[d.cursor], true
}

// Cursor returns the cursor position.
func (d *Documents) Cursor() int {
	return d.cursor
}

// MoveUp moves the cursor up one entry.
func (d *Documents) MoveUp() {
	if d.cursor > 0 {
		d.cursor--
	}
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
}

// MoveDown moves the cursor down one entry.
func (d *Documents) MoveDown() {
	if d.cursor < len(d.entries)-1 {
		d.cursor++
	}
	if d.cursor >= d.offset+d.height {
		d.offset = d.cursor - d.height + 1
	}
}

// Toggle chooses or unchooses the entry under the cursor.
// Entries without an attachment cannot be chosen.
func (d *Documents) Toggle() error {
	entry, ok := d.Current()
	if !ok {
		return nil
	}
	if !entry.HasAttachment() {
		return fmt.Errorf("%s: %w", entry.Citekey, domain.ErrNoAttachment)
	}
	for i, ck := range d.chosen {
		if ck == entry.Citekey {
			d.chosen = append(d.chosen[:i], d.chosen[i+1:]...)
			return nil
		}
	}
	d.chosen = append(d.chosen, entry.Citekey)
	return nil
}

// IsChosen reports whether citekey is chosen.
func (d *Documents) IsChosen(citekey domain.Citekey) bool {
	for _, ck := range d.chosen {
		if ck == citekey {
			return true
		}
	}
	return false
}

// Chosen returns the chosen citekeys in the order they were chosen.
func (d *Documents) Chosen() []domain.Citekey {
	out := make([]domain.Citekey, len(d.chosen))
	copy(out, d.chosen)
	return out
}

// ClearChosen unchooses every entry.
func (d *Documents) ClearChosen() {
	d.chosen = nil
}

// SetDimensions sets the visible area.
func (d *Documents) SetDimensions(width, height int) {
	if height < 1 {
		height = 1
	}
	d.width = width
	d.height = height
}

// View renders the visible slice of the list.
func (d *Documents) View() string {
	if len(d.entries) == 0 {
		return d.styles.Muted.Render("No documents in the library.")
	}

	end := d.offset + d.height
	if end > len(d.entries) {
		end = len(d.entries)
	}

	var b strings.Builder
	for i := d.offset; i < end; i++ {
		b.WriteString(d.renderRow(i))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (d *Documents) renderRow(i int) string {
	e := d.entries[i]

	box := "[ ]"
	if n := d.position(e.Citekey); n > 0 {
		box = d.styles.Checked.Render(fmt.Sprintf("[%d]", n))
	} else if !e.HasAttachment() {
		box = d.styles.Muted.Render(" - ")
	}

	indexed := " "
	if e.HasIndex {
		indexed = "*"
	}

	title := e.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("%s %s %-24s %s", box, indexed, e.Citekey, title)

	if i == d.cursor {
		return d.styles.Selected.Render(line)
	}
	if !e.HasAttachment() {
		return d.styles.Muted.Render(line)
	}
	return d.styles.Normal.Render(line)
}

// position returns the 1-based label number of citekey, or 0.
func (d *Documents) position(citekey domain.Citekey) int {
	for i, ck := range d.chosen {
		if ck == citekey {
			return i + 1
		}
	}
	return 0
}
