package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadChallenge(t *testing.T) {
	t.Run("no file returns the built-in challenge", func(t *testing.T) {
		challenge, err := loadChallenge(&Config{})
		if err != nil {
			t.Fatalf("loadChallenge() error = %v", err)
		}
		if challenge.ID != "email_validation" {
			t.Errorf("challenge ID = %q, want %q", challenge.ID, "email_validation")
		}
		if len(challenge.TargetMatches) != 8 {
			t.Errorf("target count = %d, want 8", len(challenge.TargetMatches))
		}
		if challenge.TimeLimit != defaultTimeLimit {
			t.Errorf("time limit = %d, want %d", challenge.TimeLimit, defaultTimeLimit)
		}
	})

	t.Run("file overrides the built-in challenge", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "challenge.json")
		data := `{
			"id": "digits",
			"name": "Digit hunt",
			"targetText": "a1 b22 c333",
			"targetMatches": ["1", "22", "333"],
			"timeLimit": 60
		}`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		challenge, err := loadChallenge(&Config{challengeFile: path})
		if err != nil {
			t.Fatalf("loadChallenge() error = %v", err)
		}
		if challenge.ID != "digits" {
			t.Errorf("challenge ID = %q, want %q", challenge.ID, "digits")
		}
		if challenge.TimeLimit != 60 {
			t.Errorf("time limit = %d, want 60", challenge.TimeLimit)
		}
	})

	t.Run("missing time limit falls back to default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "challenge.json")
		data := `{"id": "x", "targetText": "ab", "targetMatches": ["a"]}`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		challenge, err := loadChallenge(&Config{challengeFile: path})
		if err != nil {
			t.Fatalf("loadChallenge() error = %v", err)
		}
		if challenge.TimeLimit != defaultTimeLimit {
			t.Errorf("time limit = %d, want %d", challenge.TimeLimit, defaultTimeLimit)
		}
	})

	t.Run("incomplete challenge is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "challenge.json")
		if err := os.WriteFile(path, []byte(`{"id": "x"}`), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := loadChallenge(&Config{challengeFile: path}); err == nil {
			t.Error("loadChallenge() expected error for missing fields, got nil")
		}
	})

	t.Run("unreadable file is rejected", func(t *testing.T) {
		if _, err := loadChallenge(&Config{challengeFile: "/nonexistent/challenge.json"}); err == nil {
			t.Error("loadChallenge() expected error for missing file, got nil")
		}
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "challenge.json")
		if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := loadChallenge(&Config{challengeFile: path}); err == nil {
			t.Error("loadChallenge() expected error for malformed json, got nil")
		}
	})
}
