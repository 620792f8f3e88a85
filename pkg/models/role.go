package models

// Role is a named grant definition. Simple names ("admin", "editor") are
// assignable to users; names shaped like scope:action are fine-grained
// permissions used internally by the access layer.
type Role struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Built-in role names seeded at migration time.
const (
	RoleAdmin     = "admin"
	RoleEditor    = "editor"
	RoleAnnotator = "annotator"
	RoleViewer    = "viewer"
)
