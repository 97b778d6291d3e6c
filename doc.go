/*
Package stepwise is a wizard navigation engine: it walks a user through a tree
of menus and forms described in YAML, JSON or Markdown frontmatter, and
collects the answers.

# Concept

A flow is a graph of nodes. An options node is a menu; a context node is an
ordered list of fields filled one at a time; a holder stands for a node that is
loaded from a description source on first use and memoized by path. Fields may
be verified, offering a closed list of answers plus an "other" fallback.

The host drives the walk with three primitives (output, input and back) and
reads the result with collect, which returns the entered values from the
current node up to the root. The Session type wraps these primitives and
journals every step so a walk can be persisted and replayed.

# Usage

	eng, err := stepwise.New("./my-flow")
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.Start(ctx, "session-123")
	if err != nil {
		log.Fatal(err)
	}

	for !s.Submitted() {
		prompt, err := s.Prompt(ctx)
		if err != nil {
			break
		}
		fmt.Print(prompt.String())
		line := readLine()
		if _, err := s.Input(ctx, line); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(s.Entries())

See pkg/runner for a ready-made terminal loop and cmd/stepwise for the CLI.
*/
package stepwise
