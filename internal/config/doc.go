// Package config holds apchkout's two configuration layers.
//
// The project env file (.env at the repo root) is the source of truth for
// database connection settings and the currently active database. It is a
// flat KEY=VALUE file shared with the application itself, so loading and
// saving must preserve every line apchkout does not own: comments, blank
// lines, and unrelated keys survive a round trip verbatim.
//
// The global config (~/.config/apchkout/config.toml) holds operator
// preferences that do not belong in a shared project file, like the path of
// the Django management script. It is optional; every field has a default.
package config
