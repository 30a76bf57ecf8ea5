package router

import (
	"fmt"
	"strings"
)

const (
	expressionAllowed = "0123456789+-*/()% ."
	snippetAllowed    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_()[]{}\"' :,.+-*/%\n=\r\t"
)

// ValidateExpression trims a generated arithmetic expression and checks it
// against the calculator allow-set.
func ValidateExpression(raw string) (string, error) {
	return gate(raw, expressionAllowed, "expression")
}

// ValidateSnippet trims a generated datetime snippet and checks it against the
// snippet allow-set. Passing the gate is a precondition for the sandbox, not a
// substitute for it.
func ValidateSnippet(raw string) (string, error) {
	return gate(raw, snippetAllowed, "snippet")
}

func gate(raw, allowed, what string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty %s", ErrInvalidArtifact, what)
	}
	for i, r := range s {
		if !strings.ContainsRune(allowed, r) {
			return "", fmt.Errorf("%w: %s has disallowed character %q at offset %d", ErrInvalidArtifact, what, r, i)
		}
	}
	return s, nil
}
