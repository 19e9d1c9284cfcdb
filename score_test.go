package main

import (
	"testing"
)

func TestEvaluate(t *testing.T) {
	challenge := defaultChallenge()

	tests := []struct {
		name         string
		pattern      string
		corpus       string
		targets      []string
		wantCount    int
		wantComplete bool
	}{
		{
			name:         "email pattern matches all eight targets",
			pattern:      `[\w.+-]+@[\w.-]+\.[a-zA-Z]{2,}`,
			corpus:       challenge.TargetText,
			targets:      challenge.TargetMatches,
			wantCount:    8,
			wantComplete: true,
		},
		{
			name:         "literal pattern matches a single target",
			pattern:      `support@regexec\.com`,
			corpus:       challenge.TargetText,
			targets:      challenge.TargetMatches,
			wantCount:    1,
			wantComplete: false,
		},
		{
			name:         "empty pattern scores zero",
			pattern:      "",
			corpus:       challenge.TargetText,
			targets:      challenge.TargetMatches,
			wantCount:    0,
			wantComplete: false,
		},
		{
			name:         "whitespace-only pattern scores zero",
			pattern:      "   ",
			corpus:       challenge.TargetText,
			targets:      challenge.TargetMatches,
			wantCount:    0,
			wantComplete: false,
		},
		{
			name:         "invalid pattern scores zero",
			pattern:      `(unclosed`,
			corpus:       challenge.TargetText,
			targets:      challenge.TargetMatches,
			wantCount:    0,
			wantComplete: false,
		},
		{
			name:         "target comparison is case-sensitive",
			pattern:      `foo`,
			corpus:       "foo bar",
			targets:      []string{"Foo"},
			wantCount:    0,
			wantComplete: false,
		},
		{
			name:         "extra matches neither help nor hurt",
			pattern:      `\w+`,
			corpus:       "alpha beta gamma",
			targets:      []string{"alpha", "beta"},
			wantCount:    2,
			wantComplete: true,
		},
		{
			name:         "order of targets is irrelevant",
			pattern:      `beta|alpha`,
			corpus:       "alpha beta",
			targets:      []string{"beta", "alpha"},
			wantCount:    2,
			wantComplete: true,
		},
		{
			name:         "no targets never completes",
			pattern:      `\w+`,
			corpus:       "alpha",
			targets:      nil,
			wantCount:    0,
			wantComplete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, complete := regexpEvaluator{}.Evaluate(tt.pattern, tt.corpus, tt.targets)
			if count != tt.wantCount {
				t.Errorf("Evaluate() count = %d, want %d", count, tt.wantCount)
			}
			if complete != tt.wantComplete {
				t.Errorf("Evaluate() complete = %v, want %v", complete, tt.wantComplete)
			}
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	challenge := defaultChallenge()
	pattern := `[\w.+-]+@[\w.-]+\.[a-zA-Z]{2,}`

	firstCount, firstComplete := regexpEvaluator{}.Evaluate(pattern, challenge.TargetText, challenge.TargetMatches)
	for i := 0; i < 10; i++ {
		count, complete := regexpEvaluator{}.Evaluate(pattern, challenge.TargetText, challenge.TargetMatches)
		if count != firstCount || complete != firstComplete {
			t.Fatalf("Evaluate() drifted on run %d: got (%d, %v), want (%d, %v)",
				i, count, complete, firstCount, firstComplete)
		}
	}
}
