package main

import "testing"

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"short":                                 true,
		"please-change-me-0123456789abcdef0123": true,
		"Zq8v1N4tE7rX2kP9mW5sB3yH6cJ0aL8dF4gU1": false,
	}
	for secret, want := range cases {
		if got := isWeakSecret(secret); got != want {
			t.Fatalf("isWeakSecret(%q) want %v got %v", secret, want, got)
		}
	}
}
