// Package prompt provides interactive terminal prompts.
//
// Every destructive apchkout operation gates on [Confirm]. The command layer
// receives the confirm function as a capability, so tests and --yes runs
// substitute a non-interactive implementation.
package prompt
