package git

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	localRefPrefix  = "refs/heads/"
	remoteRefPrefix = "refs/remotes/origin/"
)

// CurrentBranch returns the branch checked out in the repo at dir.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	output, err := outputGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("current branch: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// BranchExistsLocal checks if a local branch exists.
func BranchExistsLocal(ctx context.Context, dir, branch string) bool {
	return runGit(ctx, dir, "rev-parse", "--verify", "--quiet", localRefPrefix+branch) == nil
}

// BranchExistsRemote checks if the branch exists on origin, judged from the
// local remote-tracking refs. No network round trip; operators fetch when
// they want fresher refs.
func BranchExistsRemote(ctx context.Context, dir, branch string) bool {
	return runGit(ctx, dir, "rev-parse", "--verify", "--quiet", remoteRefPrefix+branch) == nil
}

// Checkout checks out an existing local branch.
func Checkout(ctx context.Context, dir, branch string) error {
	if err := runGit(ctx, dir, "checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// CheckoutTrack checks out a remote-only branch as a new local tracking
// branch.
func CheckoutTrack(ctx context.Context, dir, branch string) error {
	if err := runGit(ctx, dir, "checkout", "--track", "origin/"+branch); err != nil {
		return fmt.Errorf("checkout origin/%s: %w", branch, err)
	}
	return nil
}

// CreateAndCheckout creates a new branch from the current HEAD and checks it
// out.
func CreateAndCheckout(ctx context.Context, dir, branch string) error {
	if err := runGit(ctx, dir, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

// ListAllBranchNames returns local and origin branch names, origin/ prefix
// stripped, deduplicated and sorted. Used to cross-check guessed branch
// names against branches that actually exist.
func ListAllBranchNames(ctx context.Context, dir string) ([]string, error) {
	output, err := outputGit(ctx, dir, "for-each-ref", "--format=%(refname)",
		localRefPrefix, strings.TrimSuffix(remoteRefPrefix, "/"))
	if err != nil {
		return nil, fmt.Errorf("list branches: %v", err)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, ref := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		var name string
		switch {
		case strings.HasPrefix(ref, localRefPrefix):
			name = strings.TrimPrefix(ref, localRefPrefix)
		case strings.HasPrefix(ref, remoteRefPrefix):
			name = strings.TrimPrefix(ref, remoteRefPrefix)
		default:
			continue
		}
		// origin/HEAD is a pointer, not a branch.
		if name == "" || name == "HEAD" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	slices.Sort(names)
	return names, nil
}
