package models

// Scope is a named permission unit with a human-readable description.
type Scope struct {
	Name        string `json:"name" toml:"name"`
	Description string `json:"description" toml:"description"`
	Default     bool   `json:"default" toml:"default"` // granted when the request omits scope
}
