package document

import (
	"fmt"
	"strings"

	"github.com/gompdf/gompage/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// StepKind names a primitive change
type StepKind string

const (
	StepInsert  StepKind = "insert"
	StepDelete  StepKind = "delete"
	StepReplace StepKind = "replace"
)

// Step records one change: OldSize positions starting at Pos were replaced
// by NewSize positions.
type Step struct {
	Kind    StepKind
	Pos     int
	OldSize int
	NewSize int
	Type    string
}

// Tx is an open transaction. It is only valid inside the function passed
// to Document.Apply.
type Tx struct {
	doc   *Document
	steps []Step
}

// Steps returns the steps applied so far
func (tx *Tx) Steps() []Step {
	return tx.steps
}

// Size returns the current content size
func (tx *Tx) Size() int {
	return contentSize(tx.doc.body)
}

// Map translates a position in the document as it was when the
// transaction started into the current document. A position at an
// insertion point moves past the inserted content; a position inside a
// deleted range collapses to its start.
func (tx *Tx) Map(pos int) int {
	for _, s := range tx.steps {
		end := s.Pos + s.OldSize
		switch {
		case s.OldSize == 0 && pos >= s.Pos:
			pos += s.NewSize
		case pos >= end && s.OldSize > 0:
			pos += s.NewSize - s.OldSize
		case pos > s.Pos && pos < end:
			pos = s.Pos
		}
	}
	return pos
}

// BlockAt returns the top-level block starting at pos
func (tx *Tx) BlockAt(pos int) (*html.Node, bool) {
	for n, p := range blocks(tx.doc.body) {
		if p == pos {
			return n, true
		}
		if p > pos {
			break
		}
	}
	return nil, false
}

// Insert places a detached block node at the top-level boundary pos.
func (tx *Tx) Insert(pos int, n *html.Node) error {
	if n == nil || !IsBlock(n) && !IsMarker(n) {
		return ErrNotBlock
	}
	ref, err := tx.boundary(pos)
	if err != nil {
		return err
	}
	tx.doc.body.InsertBefore(n, ref)
	tx.steps = append(tx.steps, Step{
		Kind:    StepInsert,
		Pos:     pos,
		NewSize: nodeSize(n),
		Type:    ContentType(n),
	})
	return nil
}

// Delete removes the top-level block starting at pos and returns it.
func (tx *Tx) Delete(pos int) (*html.Node, error) {
	n, ok := tx.BlockAt(pos)
	if !ok {
		return nil, fmt.Errorf("delete at %d: %w", pos, ErrInvalidPosition)
	}
	size := nodeSize(n)
	tx.doc.body.RemoveChild(n)
	tx.steps = append(tx.steps, Step{
		Kind:    StepDelete,
		Pos:     pos,
		OldSize: size,
		Type:    ContentType(n),
	})
	return n, nil
}

// ReplaceText replaces the inline content of the textblock at pos with a
// single text node.
func (tx *Tx) ReplaceText(pos int, text string) error {
	n, ok := tx.BlockAt(pos)
	if !ok {
		return fmt.Errorf("replace text at %d: %w", pos, ErrInvalidPosition)
	}
	if !IsTextblock(n) {
		return fmt.Errorf("replace text at %d: %w", pos, ErrNotTextblock)
	}
	oldSize := contentSize(n)
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(html.NewText(text))
	}
	tx.steps = append(tx.steps, Step{
		Kind:    StepReplace,
		Pos:     pos + 1,
		OldSize: oldSize,
		NewSize: contentSize(n),
		Type:    ContentType(n),
	})
	return nil
}

// boundary resolves pos to the block it precedes. A nil node with a nil
// error means the end of the document.
func (tx *Tx) boundary(pos int) (*html.Node, error) {
	if pos < 0 {
		return nil, fmt.Errorf("position %d: %w", pos, ErrInvalidPosition)
	}
	end := 0
	for c := tx.doc.body.FirstChild; c != nil; c = c.NextSibling {
		if end == pos && c.Type == xhtml.ElementNode {
			return c, nil
		}
		end += nodeSize(c)
		if end > pos {
			break
		}
	}
	if end == pos && pos == contentSize(tx.doc.body) {
		return nil, nil
	}
	return nil, fmt.Errorf("position %d: %w", pos, ErrInvalidPosition)
}

// String formats the step for log output
func (s Step) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s@%d", s.Kind, s.Type, s.Pos)
	if s.OldSize > 0 {
		fmt.Fprintf(&b, " -%d", s.OldSize)
	}
	if s.NewSize > 0 {
		fmt.Fprintf(&b, " +%d", s.NewSize)
	}
	return b.String()
}
