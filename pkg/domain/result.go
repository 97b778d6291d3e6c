package domain

import (
	"fmt"
	"strings"
)

// OutputResult is what the host receives when it asks the current node to render.
// When StateChanged is set, Next is the node that becomes current and Prompt is empty.
type OutputResult struct {
	StateChanged bool
	Next         Node
	Submit       bool
	Prompt       Prompt
}

// TransitionResult is what the host receives after input or back.
type TransitionResult struct {
	StateChanged    bool
	Next            Node
	Submit          bool
	InputRecognized bool
}

// PromptKind tells a renderer how to present the items of a prompt.
type PromptKind string

const (
	PromptMenu  PromptKind = "menu"
	PromptField PromptKind = "field"
)

// Prompt is the structured view of the current step.
type Prompt struct {
	Kind        PromptKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Items       []string   `json:"items"`
	Error       string     `json:"error,omitempty"`
}

// String renders the prompt as plain text.
//
//	[title]
//	description
//	1. first option
func (p Prompt) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n", p.Title)
	if p.Description != "" {
		sb.WriteString(p.Description)
		sb.WriteString("\n")
	}
	if p.Error != "" {
		fmt.Fprintf(&sb, "! %s\n", p.Error)
	}
	for i, item := range p.Items {
		if p.Kind == PromptMenu {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(&sb, "%s:\n", item)
		}
	}
	return sb.String()
}

// Markdown renders the prompt for a markdown terminal renderer.
func (p Prompt) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", p.Title)
	if p.Description != "" {
		sb.WriteString(p.Description)
		sb.WriteString("\n\n")
	}
	if p.Error != "" {
		fmt.Fprintf(&sb, "> %s\n\n", p.Error)
	}
	for i, item := range p.Items {
		if p.Kind == PromptMenu {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(&sb, "**%s**\n", item)
		}
	}
	return sb.String()
}

// Entry is one collected value.
type Entry struct {
	Node  string `json:"node"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Reverse returns the entries in the opposite order.
// Collections are produced leaf-to-root; hosts that want root-to-leaf call this.
func Reverse(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
