// Package dbname maps git branch names to database names and back.
//
// The forward mapping is deterministic but lossy: branch names that differ
// only by case or by characters outside [A-Za-z0-9_] map to the same
// database name. That collision is accepted behavior. The reverse mapping is
// a display-only guess and must never drive a destructive decision on its
// own; callers cross-check against the live branch list.
package dbname

import "strings"

// ForBranch derives the database name for a branch.
// The master branch maps to the base name itself, every other branch gets
// the sanitized, lowercased branch name appended as a suffix.
func ForBranch(branch, base string) string {
	if branch == "master" {
		return base
	}
	return base + "_" + sanitize(branch)
}

// GuessBranch reconstructs a plausible branch name from a database name.
// It strips the base prefix, restores the common fix/ and feature/ branch
// prefixes, and turns the remaining underscores back into hyphens.
// Best effort only: the forward mapping is not invertible.
func GuessBranch(name, base string) string {
	guess := strings.TrimPrefix(name, base+"_")
	switch {
	case strings.HasPrefix(guess, "fix_"):
		guess = "fix/" + strings.TrimPrefix(guess, "fix_")
	case strings.HasPrefix(guess, "feature_"):
		guess = "feature/" + strings.TrimPrefix(guess, "feature_")
	}
	prefix, rest, found := strings.Cut(guess, "/")
	if !found {
		return strings.ReplaceAll(guess, "_", "-")
	}
	return prefix + "/" + strings.ReplaceAll(rest, "_", "-")
}

// sanitize replaces every character outside [A-Za-z0-9_] with an underscore
// and lowercases the result.
func sanitize(branch string) string {
	var b strings.Builder
	b.Grow(len(branch))
	for _, r := range branch {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
