// Package cmd provides helpers for executing external commands with proper
// error handling.
//
// This package wraps [os/exec.Cmd] to capture stderr and include it in error
// messages, making command failures more informative for users.
//
// apchkout shells out to git and the Django management script rather than
// reimplementing them. This keeps the tool compatible with whatever the
// operator has configured locally (SSH keys, git aliases, virtualenvs).
package cmd
