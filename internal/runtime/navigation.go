package runtime

import (
	"context"
	"strconv"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Output renders the current node. It changes state in two cases only: a
// context reaching a verified field hands back the field's menu, and a context
// with a pending back propagates to its parent. An exhausted context reports
// its completion again on every call.
func (e *Engine) Output(ctx context.Context, n domain.Node) (domain.OutputResult, error) {
	switch n := n.(type) {
	case *domain.OptionsNode:
		return domain.OutputResult{Prompt: menuPrompt(n)}, nil
	case *domain.ContextNode:
		return e.outputContext(ctx, n)
	case *domain.HolderNode:
		resolved, err := n.Resolve(ctx)
		if err != nil {
			return domain.OutputResult{}, err
		}
		return domain.OutputResult{StateChanged: true, Next: resolved}, nil
	default:
		panic(domain.InvariantViolation{Detail: "output on unknown node kind"})
	}
}

// Input applies raw user input to the current node.
// Unrecognized input is reported through InputRecognized and never changes state.
func (e *Engine) Input(ctx context.Context, n domain.Node, raw string) (domain.TransitionResult, error) {
	switch n := n.(type) {
	case *domain.OptionsNode:
		return e.inputOptions(ctx, n, raw)
	case *domain.ContextNode:
		return e.inputContext(ctx, n, raw)
	case *domain.HolderNode:
		resolved, err := n.Resolve(ctx)
		if err != nil {
			return domain.TransitionResult{}, err
		}
		return e.Input(ctx, resolved, raw)
	default:
		panic(domain.InvariantViolation{Detail: "input on unknown node kind"})
	}
}

// Back moves one step backwards. A context rolls back its own cursor until it
// reaches the first field; from there, and always for a menu, control bubbles
// to the parent, which rewinds by the node's back-step amount.
func (e *Engine) Back(ctx context.Context, n domain.Node) (domain.TransitionResult, error) {
	switch n := n.(type) {
	case *domain.OptionsNode:
		return e.bubble(ctx, n, n.Parent, n.BackSteps), nil
	case *domain.ContextNode:
		if n.StepBack() {
			return domain.TransitionResult{}, nil
		}
		return e.bubble(ctx, n, n.Parent, n.BackSteps), nil
	case *domain.HolderNode:
		resolved, err := n.Resolve(ctx)
		if err != nil {
			return domain.TransitionResult{}, err
		}
		return e.Back(ctx, resolved)
	default:
		panic(domain.InvariantViolation{Detail: "back on unknown node kind"})
	}
}

func (e *Engine) bubble(ctx context.Context, from, parent domain.Node, steps int) domain.TransitionResult {
	if parent == nil {
		return domain.TransitionResult{}
	}
	rewind(parent, steps)
	e.transition(ctx, from, parent)
	return domain.TransitionResult{StateChanged: true, Next: parent}
}

// rewind asks a parent to roll its cursor back by amount.
func rewind(n domain.Node, amount int) {
	switch n := n.(type) {
	case *domain.OptionsNode:
		n.Rewind(amount)
	case *domain.ContextNode:
		n.Rewind(amount)
	case *domain.HolderNode:
		if r := n.Resolved(); r != nil {
			rewind(r, amount)
		}
	}
}

func (e *Engine) inputOptions(ctx context.Context, n *domain.OptionsNode, raw string) (domain.TransitionResult, error) {
	idx := matchOption(n.Options, raw)
	if idx < 0 {
		e.unrecognized(ctx, n, raw)
		return domain.TransitionResult{}, nil
	}

	opt := n.Options[idx]
	if opt.Target == nil {
		panic(domain.InvariantViolation{Node: n.Name, Detail: "matched option " + strconv.Quote(opt.Name) + " has no target"})
	}
	target, err := resolve(ctx, opt.Target)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	if opt.ResetOnEnter {
		Reset(target)
	}
	n.Select(idx)
	e.transition(ctx, n, target)

	return domain.TransitionResult{
		StateChanged:    true,
		Next:            target,
		Submit:          opt.Submit,
		InputRecognized: true,
	}, nil
}

// matchOption returns the option addressed by raw: a 1-based position first,
// then an exact, case-sensitive name. It returns -1 when nothing matches.
func matchOption(options []domain.Option, raw string) int {
	if n, err := strconv.ParseUint(raw, 10, 32); err == nil && n >= 1 && int(n) <= len(options) {
		return int(n) - 1
	}
	for i, opt := range options {
		if opt.Name == raw {
			return i
		}
	}
	return -1
}

func (e *Engine) inputContext(ctx context.Context, n *domain.ContextNode, raw string) (domain.TransitionResult, error) {
	// An exhausted context has nowhere to store raw until Output moves on.
	if raw == "" || !n.Fill(raw) {
		e.unrecognized(ctx, n, raw)
		return domain.TransitionResult{}, nil
	}
	if !n.Exhausted() {
		return domain.TransitionResult{InputRecognized: true}, nil
	}

	out, err := e.complete(ctx, n)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	return domain.TransitionResult{
		StateChanged:    out.StateChanged,
		Next:            out.Next,
		Submit:          out.Submit,
		InputRecognized: true,
	}, nil
}

// complete runs when every field of n has been visited.
// A context without successor always submits.
func (e *Engine) complete(ctx context.Context, n *domain.ContextNode) (domain.OutputResult, error) {
	res := domain.OutputResult{StateChanged: true, Submit: n.SubmitOnComplete}
	if n.Next == nil {
		res.Submit = true
		return res, nil
	}
	next, err := resolve(ctx, n.Next)
	if err != nil {
		return domain.OutputResult{}, err
	}
	e.transition(ctx, n, next)
	res.Next = next
	return res, nil
}
