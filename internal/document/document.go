// Package document is the editable block tree that pagination runs against.
//
// A Document wraps a parsed HTML tree and addresses its content with integer
// positions in the ProseMirror manner: content starts at 0, a text node
// occupies one position per rune, inline elements add nothing of their own,
// block elements add an opening and a closing token and atom blocks occupy a
// single position. Mutations go through Apply, which runs a transaction under
// the document lock and then notifies subscribers.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/gompdf/gompage/internal/parser/html"
	"github.com/gompdf/gompage/internal/parser/markdown"
	"github.com/google/uuid"
	xhtml "golang.org/x/net/html"
)

var (
	// ErrInvalidPosition is returned when a position does not address a
	// top-level block boundary of the current document.
	ErrInvalidPosition = errors.New("document: invalid position")
	// ErrNotBlock is returned when a non-block node is inserted at top level.
	ErrNotBlock = errors.New("document: node is not a block element")
	// ErrNotTextblock is returned when text replacement targets a node that
	// does not hold inline content.
	ErrNotTextblock = errors.New("document: node is not a textblock")
)

// Document is a mutable block document. It is safe for concurrent use.
type Document struct {
	mu      sync.RWMutex
	tree    *html.Document
	body    *html.Node
	version uint64

	subMu   sync.Mutex
	subs    map[int]subscription
	nextSub int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	tree, err := html.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return New(tree), nil
}

// ParseHTML parses an HTML string.
func ParseHTML(content string) (*Document, error) {
	return Parse(strings.NewReader(content))
}

// ParseMarkdown converts Markdown to HTML and parses the result.
func ParseMarkdown(src []byte) (*Document, error) {
	out, err := markdown.ToHTML(src)
	if err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return Parse(bytes.NewReader(out))
}

// ParseBlocks parses an HTML fragment into detached block nodes suitable
// for Tx.Insert. Inline content at the top of the fragment is wrapped in
// paragraphs.
func ParseBlocks(fragment string) ([]*html.Node, error) {
	nodes, err := html.NewParser().ParseFragment(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	holder := html.NewElement("body")
	for _, n := range nodes {
		holder.AppendChild(n)
	}
	normalizeBlocks(holder, nil)
	var out []*html.Node
	for c := holder.FirstChild; c != nil; {
		next := c.NextSibling
		holder.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out, nil
}

// New wraps an already parsed tree. The body is normalised so that every
// top-level child is a block element.
func New(tree *html.Document) *Document {
	if tree == nil || tree.Root == nil {
		tree = &html.Document{Root: &html.Node{Type: xhtml.DocumentNode}}
	}
	body := html.FindElement(tree.Root, "body")
	if body == nil {
		body = html.NewElement("body")
		tree.Root.AppendChild(body)
	}
	normalizeBlocks(body, html.FindElement(tree.Root, "head"))
	return &Document{
		tree: tree,
		body: body,
		subs: make(map[int]subscription),
	}
}

// normalizeBlocks drops comments and inter-block whitespace, moves style,
// link and script elements to head (or drops them when head is nil) and wraps
// stray inline content in paragraphs.
func normalizeBlocks(body, head *html.Node) {
	var pending *html.Node
	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == xhtml.CommentNode,
			c.Type == xhtml.TextNode && strings.TrimSpace(c.Data) == "" && pending == nil:
			body.RemoveChild(c)
		case c.IsElement("script", "style", "link"):
			body.RemoveChild(c)
			if head != nil {
				head.AppendChild(c)
			}
		case IsBlock(c):
			pending = nil
		default:
			if pending == nil {
				pending = html.NewElement("p")
				body.InsertBefore(pending, c)
			}
			body.RemoveChild(c)
			pending.AppendChild(c)
		}
		c = next
	}
}

// Version increments on every transaction that changed the content.
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Read runs fn with the document locked for reading. fn must not mutate
// the tree or call Apply.
func (d *Document) Read(fn func(root *html.Node, body *html.Node)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.tree.Root, d.body)
}

// Size returns the content size of the document.
func (d *Document) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return contentSize(d.body)
}

// BlockCount returns the number of top-level blocks.
func (d *Document) BlockCount() int {
	n := 0
	for range d.Blocks() {
		n++
	}
	return n
}

// Blocks yields the top-level blocks with their positions. The read lock
// is held for the duration of the iteration.
func (d *Document) Blocks() iter.Seq2[*html.Node, int] {
	return func(yield func(*html.Node, int) bool) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for n, pos := range blocks(d.body) {
			if !yield(n, pos) {
				return
			}
		}
	}
}

// Nodes yields every node in document order, depth first, with its
// position. The read lock is held for the duration of the iteration.
func (d *Document) Nodes() iter.Seq2[*html.Node, int] {
	return func(yield func(*html.Node, int) bool) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		descend(d.body, 0, yield)
	}
}

// HTML serialises the full document.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.Render()
}

// BodyHTML serialises the children of the body.
func (d *Document) BodyHTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var buf bytes.Buffer
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.RenderNode(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Apply runs fn as one transaction. Steps applied before fn returns an
// error are kept. Subscribers are notified after the lock is released:
// EventTransaction always, EventUpdate only when the content changed.
func (d *Document) Apply(fn func(tx *Tx) error) (*Transaction, error) {
	d.mu.Lock()
	tx := &Tx{doc: d}
	err := fn(tx)
	changed := len(tx.steps) > 0
	if changed {
		d.version++
	}
	d.mu.Unlock()

	t := &Transaction{
		ID:         newTransactionID(),
		Steps:      tx.steps,
		DocChanged: changed,
	}
	d.emit(Event{Kind: EventTransaction, Transaction: t})
	if changed {
		d.emit(Event{Kind: EventUpdate, Transaction: t})
	}
	return t, err
}

func newTransactionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// blocks yields the element children of body with their start positions.
func blocks(body *html.Node) iter.Seq2[*html.Node, int] {
	return func(yield func(*html.Node, int) bool) {
		pos := 0
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			size := nodeSize(c)
			if c.Type == xhtml.ElementNode {
				if !yield(c, pos) {
					return
				}
			}
			pos += size
		}
	}
}

// descend walks the children of parent whose content starts at pos.
func descend(parent *html.Node, pos int, yield func(*html.Node, int) bool) bool {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode || c.Type == xhtml.TextNode {
			if !yield(c, pos) {
				return false
			}
		}
		if c.Type == xhtml.ElementNode && !IsAtom(c) {
			start := pos
			if IsBlock(c) {
				start++
			}
			if !descend(c, start, yield) {
				return false
			}
		}
		pos += nodeSize(c)
	}
	return true
}
