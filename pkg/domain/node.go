package domain

import (
	"context"
	"sync"
)

// Node is one step of a wizard graph.
// The set of implementations is closed: *OptionsNode, *ContextNode and *HolderNode.
// Callers are expected to switch over the concrete type.
type Node interface {
	sealed()
}

// Materializer builds the node a HolderNode stands for.
// The runtime loader implements it; each holder keeps the materializer that created it.
type Materializer interface {
	Materialize(ctx context.Context, h *HolderNode) (Node, error)
}

// Back-step amounts recorded on a node at construction.
// They describe how many cursor advancing steps on the parent led into the node.
const (
	// StepsFromField is used for nodes reached by completing a context (the `next` successor).
	StepsFromField = 1
	// StepsFromOption is used for nodes reached by an option selection or a verified-field menu.
	StepsFromOption = 2
)

// OptionsNode is a menu: the user picks one of several named options.
type OptionsNode struct {
	Name        string
	Description string
	Parent      Node // non-owning
	Options     []Option
	BackSteps   int

	mu       sync.Mutex
	cursor   int
	selected bool
}

// Option is one entry of an OptionsNode.
type Option struct {
	Name         string
	Submit       bool
	ResetOnEnter bool
	Target       Node // built node or *HolderNode
}

// ContextNode is an ordered sequence of fields filled one at a time.
type ContextNode struct {
	Name             string
	Description      string
	Parent           Node // non-owning
	Fields           []Field
	Next             Node // optional; built node or *HolderNode
	SubmitOnComplete bool
	BackSteps        int

	mu          sync.Mutex
	cursor      int
	pendingBack bool
}

// HolderNode is a placeholder resolved on first use through its Materializer.
type HolderNode struct {
	Path   string
	Source int
	Lazy   bool
	// Parent and BackSteps are handed to the materialized node.
	Parent    Node
	BackSteps int
	Loader    Materializer

	mu       sync.Mutex
	resolved Node
}

func (*OptionsNode) sealed() {}
func (*ContextNode) sealed() {}
func (*HolderNode) sealed()  {}

// NewOptionsNode returns a menu with no options attached yet.
func NewOptionsNode(name, description string, parent Node, backSteps int) *OptionsNode {
	return &OptionsNode{Name: name, Description: description, Parent: parent, BackSteps: backSteps}
}

// NewContextNode returns a context with no fields attached yet.
func NewContextNode(name, description string, parent Node, backSteps int) *ContextNode {
	return &ContextNode{Name: name, Description: description, Parent: parent, BackSteps: backSteps}
}

// Cursor returns the index of the last recognized selection.
func (o *OptionsNode) Cursor() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor
}

// Selection returns the selected option index, or false when nothing was selected yet.
func (o *OptionsNode) Selection() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor, o.selected
}

// Select records a recognized selection.
func (o *OptionsNode) Select(index int) {
	if index < 0 || index >= len(o.Options) {
		panic(InvariantViolation{Node: o.Name, Detail: "selection index out of range"})
	}
	o.mu.Lock()
	o.cursor = index
	o.selected = true
	o.mu.Unlock()
}

// Rewind moves the cursor back by amount, saturating at zero.
func (o *OptionsNode) Rewind(amount int) {
	o.mu.Lock()
	o.cursor = max(o.cursor-amount, 0)
	o.mu.Unlock()
}

// Reset clears the selection.
func (o *OptionsNode) Reset() {
	o.mu.Lock()
	o.cursor = 0
	o.selected = false
	o.mu.Unlock()
}

// Position returns the cursor and the pending-back flag.
func (c *ContextNode) Position() (cursor int, pendingBack bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor, c.pendingBack
}

// Exhausted reports whether every field has been visited.
func (c *ContextNode) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor == len(c.Fields)
}

// Fill writes value into the field under the cursor and advances it.
// It returns false when the context is already exhausted and nothing was written.
func (c *ContextNode) Fill(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor >= len(c.Fields) {
		return false
	}
	c.Fields[c.cursor].set(value)
	c.cursor++
	c.pendingBack = false
	return true
}

// Advance moves the cursor one field forward without writing.
func (c *ContextNode) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor >= len(c.Fields) {
		panic(InvariantViolation{Node: c.Name, Detail: "advance past last field"})
	}
	c.cursor++
}

// StepBack decrements the cursor by one. It returns false when the cursor is already at zero.
func (c *ContextNode) StepBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingBack = false
	if c.cursor == 0 {
		return false
	}
	c.cursor--
	return true
}

// Rewind moves the cursor back by amount. When amount exceeds the cursor the
// node resets to zero and flags a pending back so its next output propagates upward.
func (c *ContextNode) Rewind(amount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if amount > c.cursor {
		c.pendingBack = true
		c.cursor = 0
		return
	}
	c.cursor -= amount
}

// TakePendingBack clears the pending-back flag and reports whether it was set.
func (c *ContextNode) TakePendingBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.pendingBack
	c.pendingBack = false
	return was
}

// Reset moves the cursor to the first field.
func (c *ContextNode) Reset() {
	c.mu.Lock()
	c.cursor = 0
	c.pendingBack = false
	c.mu.Unlock()
}

// Resolve returns the materialized node, building it on first call.
// A failed materialization is not remembered, so a later call retries.
func (h *HolderNode) Resolve(ctx context.Context) (Node, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resolved != nil {
		return h.resolved, nil
	}
	if h.Loader == nil {
		return nil, &LoadError{Path: h.Path, Source: h.Source, Err: ErrNoMaterializer}
	}
	n, err := h.Loader.Materialize(ctx, h)
	if err != nil {
		return nil, err
	}
	h.resolved = n
	return n, nil
}

// Resolved returns the materialized node without forcing it.
func (h *HolderNode) Resolved() Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resolved
}

// Release drops the materialized node and the materializer.
func (h *HolderNode) Release() {
	h.mu.Lock()
	h.resolved = nil
	h.Loader = nil
	h.Parent = nil
	h.mu.Unlock()
}

// NameOf returns the display name of a node. Holders report their path.
func NameOf(n Node) string {
	switch n := n.(type) {
	case *OptionsNode:
		return n.Name
	case *ContextNode:
		return n.Name
	case *HolderNode:
		return n.Path
	case nil:
		return ""
	default:
		panic(InvariantViolation{Detail: "unknown node kind"})
	}
}

// KindOf returns a short label for the node kind.
func KindOf(n Node) string {
	switch n.(type) {
	case *OptionsNode:
		return "options"
	case *ContextNode:
		return "context"
	case *HolderNode:
		return "holder"
	default:
		return ""
	}
}

// ParentOf returns the non-owning parent of a node.
func ParentOf(n Node) Node {
	switch n := n.(type) {
	case *OptionsNode:
		return n.Parent
	case *ContextNode:
		return n.Parent
	case *HolderNode:
		if r := n.Resolved(); r != nil {
			return ParentOf(r)
		}
		return n.Parent
	default:
		return nil
	}
}
