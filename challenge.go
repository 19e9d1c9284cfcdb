package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Challenge is the immutable puzzle a room is bound to. Field names match
// the wire format consumed by the browser client.
type Challenge struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	TargetText    string   `json:"targetText"`
	TargetMatches []string `json:"targetMatches"`
	TimeLimit     int      `json:"timeLimit"`
}

const defaultTimeLimit = 120

func defaultChallenge() *Challenge {
	return &Challenge{
		ID:          "email_validation",
		Name:        "Email Validation Challenge",
		Description: "Write a regex pattern that matches all valid email addresses in the text below.",
		TargetText: `Welcome to our platform! Please contact us at support@regexec.com for any questions. Our team members include john.doe@company.org, jane_smith@tech.co.uk, and admin@test-site.net.

Invalid emails like user@, @domain.com, and user@domain should not match.

More valid emails: test.email+tag@example.com, user123@sub.domain.edu, contact@new-site.io, and info@company.travel.`,
		TargetMatches: []string{
			"support@regexec.com",
			"john.doe@company.org",
			"jane_smith@tech.co.uk",
			"admin@test-site.net",
			"test.email+tag@example.com",
			"user123@sub.domain.edu",
			"contact@new-site.io",
			"info@company.travel",
		},
		TimeLimit: defaultTimeLimit,
	}
}

// loadChallenge returns the built-in challenge, or the one read from
// --challenge if set.
func loadChallenge(cfg *Config) (*Challenge, error) {
	if cfg.challengeFile == "" {
		return defaultChallenge(), nil
	}

	data, err := os.ReadFile(cfg.challengeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge file: %w", err)
	}

	challenge := &Challenge{}
	if err := json.Unmarshal(data, challenge); err != nil {
		return nil, fmt.Errorf("failed to parse challenge file: %w", err)
	}

	if challenge.TargetText == "" || len(challenge.TargetMatches) == 0 {
		return nil, errors.New("challenge file must provide targetText and targetMatches")
	}
	if challenge.TimeLimit <= 0 {
		challenge.TimeLimit = defaultTimeLimit
	}

	return challenge, nil
}
