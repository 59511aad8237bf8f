package modules

import "fmt"

// Field names a searchable keyword field of the stored documents.
type Field string

const (
	FieldName         Field = "name"
	FieldRevision     Field = "revision"
	FieldOrganization Field = "organization"
	FieldDraft        Field = "draft"
	FieldPath         Field = "path"
	// FieldModule is the module name field of node documents.
	FieldModule Field = "module"
)

var knownFields = map[Field]struct{}{
	FieldName:         {},
	FieldRevision:     {},
	FieldOrganization: {},
	FieldDraft:        {},
	FieldPath:         {},
	FieldModule:       {},
}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := knownFields[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

func (f Field) String() string {
	return string(f)
}
