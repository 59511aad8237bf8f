package indices

import "fmt"

// Kind identifies one of the managed indices.
type Kind string

const (
	// KindYIndex stores schema nodes of modules.
	KindYIndex Kind = "yindex"
	// KindAutocomplete stores module catalog entries.
	KindAutocomplete Kind = "autocomplete"
	// KindDrafts stores IETF drafts.
	KindDrafts Kind = "drafts"
	// KindTest is a scratch module index.
	KindTest Kind = "test"
)

var allKinds = []Kind{KindYIndex, KindAutocomplete, KindDrafts, KindTest}

// Kinds returns every known kind.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// IndexName returns the engine index name for the kind.
func (k Kind) IndexName() string {
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}
