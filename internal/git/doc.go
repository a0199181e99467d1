// Package git wraps the branch operations apchkout needs by shelling out to
// the git CLI: branch existence checks, checkout/create, branch enumeration,
// and repo root discovery.
//
// Shelling out keeps apchkout compatible with the operator's local git
// setup (credential helpers, SSH config, aliases) at the cost of requiring
// git in PATH, checked once at startup via [CheckGit].
package git
