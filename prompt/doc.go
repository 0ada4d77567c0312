// Package prompt builds the system and user prompts sent by each workflow
// step. Builders are pure string functions; only the JSON field names they
// request are relied upon by callers.
package prompt
