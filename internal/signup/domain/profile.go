package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownProfileField = errors.New("unknown profile field")

// ProfileField is one editable IdP root attribute.
type ProfileField struct {
	Name  string // IdP attribute name
	Label string
	URL   bool // value must be an absolute URL
}

// profileCatalog is every attribute the portal knows how to collect. Usernames
// are left out because their uniqueness rules live in the IdP.
var profileCatalog = []ProfileField{
	{Name: "phone_number", Label: "Phone Number"},
	{Name: "given_name", Label: "First Name"},
	{Name: "family_name", Label: "Last Name"},
	{Name: "name", Label: "Full Name"},
	{Name: "nickname", Label: "Nickname"},
	{Name: "picture", Label: "Picture URL", URL: true},
}

// LookupProfileField finds a catalog entry by attribute name.
func LookupProfileField(name string) (ProfileField, bool) {
	for _, f := range profileCatalog {
		if f.Name == name {
			return f, true
		}
	}
	return ProfileField{}, false
}

// FieldSet is the configured subset of the catalog, in configuration order.
type FieldSet struct {
	Fields   []ProfileField
	required map[string]bool
}

// Required reports whether name must be filled in.
func (s FieldSet) Required(name string) bool {
	return s.required[name]
}

// Names returns the attribute names in order.
func (s FieldSet) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// NewFieldSet builds a FieldSet from attribute names. Every name, required or
// not, must exist in the catalog, and required names must also be listed in
// names.
func NewFieldSet(names, required []string) (FieldSet, error) {
	set := FieldSet{required: make(map[string]bool, len(required))}
	seen := make(map[string]bool, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		f, ok := LookupProfileField(name)
		if !ok {
			return FieldSet{}, fmt.Errorf("%w: %q", ErrUnknownProfileField, name)
		}
		seen[name] = true
		set.Fields = append(set.Fields, f)
	}

	for _, raw := range required {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := LookupProfileField(name); !ok {
			return FieldSet{}, fmt.Errorf("%w: %q", ErrUnknownProfileField, name)
		}
		if !seen[name] {
			return FieldSet{}, fmt.Errorf("required field %q is not in the configured field list", name)
		}
		set.required[name] = true
	}

	return set, nil
}
