package models

// Record is a normalized remote record or list entry: a flat attribute map
// that always carries an "id" key.
type Record map[string]interface{}

// ID returns the record's canonical ID, or "" if absent.
func (r Record) ID() string {
	return StringField(r, "id")
}

// DisplayName returns the best human-readable label for a normalized record.
// Order: name.full_name, name.value, a plain string name, the first email
// address, the first domain, then the ID.
func (r Record) DisplayName() string {
	switch name := r["name"].(type) {
	case string:
		if name != "" {
			return name
		}
	case map[string]interface{}:
		if v := StringField(name, "full_name"); v != "" {
			return v
		}
		if v := StringField(name, "value"); v != "" {
			return v
		}
	}
	if email := MapField(r, "email_addresses"); email != nil {
		if v := StringField(email, "email_address"); v != "" {
			return v
		}
	}
	if domain := MapField(r, "domains"); domain != nil {
		if v := StringField(domain, "domain"); v != "" {
			return v
		}
	}
	return r.ID()
}

// ObjectInfo describes one remote object type (GET /objects).
type ObjectInfo struct {
	ID           string `json:"object_id"`
	APISlug      string `json:"api_slug"`
	SingularNoun string `json:"singular_noun"`
	PluralNoun   string `json:"plural_noun"`
}

// AttributeInfo describes one attribute of an object type.
type AttributeInfo struct {
	ID            string `json:"attribute_id"`
	Title         string `json:"title"`
	APISlug       string `json:"api_slug"`
	Type          string `json:"type"`
	IsMultiselect bool   `json:"is_multiselect"`
	IsRequired    bool   `json:"is_required"`
	IsArchived    bool   `json:"is_archived"`
}

// ListInfo describes one remote list (GET /lists).
type ListInfo struct {
	ID           string   `json:"list_id"`
	Name         string   `json:"name"`
	APISlug      string   `json:"api_slug"`
	ParentObject []string `json:"parent_object"`
}

// PrimaryParentObject returns the object type the list's entries wrap,
// defaulting to "people".
func (l ListInfo) PrimaryParentObject() string {
	for _, p := range l.ParentObject {
		if p != "" {
			return p
		}
	}
	return "people"
}

// WorkspaceInfo is the identity returned by GET /self.
type WorkspaceInfo struct {
	Active        bool   `json:"active"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	WorkspaceSlug string `json:"workspace_slug,omitempty"`
	ClientID      string `json:"client_id,omitempty"`
	Scope         string `json:"scope,omitempty"`
}
