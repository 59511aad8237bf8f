package modules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Module is the catalog entry for one revision of a YANG module.
type Module struct {
	Name          string `json:"name"`
	Revision      string `json:"revision"`
	Organization  string `json:"organization"`
	Namespace     string `json:"namespace,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
	MaturityLevel string `json:"maturity-level,omitempty"`
	Title         string `json:"title,omitempty"`
	Abstract      string `json:"abstract,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Identity returns the identifying triple of the module.
func (m Module) Identity() Identity {
	return Identity{Name: m.Name, Revision: m.Revision, Organization: m.Organization}
}

// Identity is the natural key of a module document.
type Identity struct {
	Name         string
	Revision     string
	Organization string
}

// Validate checks that every part of the identity is present.
func (id Identity) Validate() error {
	var missing []string
	if strings.TrimSpace(id.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(id.Revision) == "" {
		missing = append(missing, "revision")
	}
	if strings.TrimSpace(id.Organization) == "" {
		missing = append(missing, "organization")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidIdentity, strings.Join(missing, ", "))
	}
	return nil
}

// Key renders the identity as name@revision/organization.
func (id Identity) Key() string {
	return id.Name + "@" + id.Revision + "/" + id.Organization
}

// String renders the identity as name@revision.
func (id Identity) String() string {
	return id.Name + "@" + id.Revision
}

// Draft is an IETF draft document stored in the drafts index.
type Draft struct {
	Name     string `json:"draft"`
	Title    string `json:"title,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// Node is a single schema node of a module stored in the yindex index.
type Node struct {
	Name         string `json:"module"`
	Revision     string `json:"revision"`
	Organization string `json:"organization"`
	Path         string `json:"path"`
	Statement    string `json:"statement,omitempty"`
	Argument     string `json:"argument,omitempty"`
	Description  string `json:"description,omitempty"`
	// Properties holds the raw statement properties as a JSON document.
	Properties json.RawMessage `json:"properties,omitempty"`
}

// DecodeModule decodes a stored module document.
func DecodeModule(source json.RawMessage) (Module, error) {
	var m Module
	if err := json.Unmarshal(source, &m); err != nil {
		return Module{}, fmt.Errorf("failed to decode module: %w", err)
	}
	return m, nil
}
