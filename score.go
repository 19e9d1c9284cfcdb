package main

import (
	"regexp"
	"strings"
)

// Evaluator scores a submitted pattern against a challenge corpus.
// The session coordinator only ever inspects the returned values; it never
// recomputes or second-guesses them.
type Evaluator interface {
	Evaluate(pattern string, corpus string, targets []string) (matchCount int, isComplete bool)
}

// regexpEvaluator runs the pattern over the corpus and counts how many
// target strings appear, verbatim and case-sensitively, among the matches.
// Order is irrelevant; extra matches neither help nor hurt. An empty or
// invalid pattern scores zero.
type regexpEvaluator struct{}

func (regexpEvaluator) Evaluate(pattern string, corpus string, targets []string) (int, bool) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return 0, false
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, false
	}

	found := make(map[string]bool)
	for _, m := range re.FindAllString(corpus, -1) {
		found[m] = true
	}

	count := 0
	for _, target := range targets {
		if found[target] {
			count++
		}
	}

	return count, len(targets) > 0 && count == len(targets)
}
