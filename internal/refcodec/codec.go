// Package refcodec encodes a record's canonical identifier alongside
// its rendered label into one opaque composite value, and decodes it
// back. Encode and decode are pure given a materialized index; all
// diagnostic state (ambiguity, the resolved label) is returned in the
// result, never kept in package state.
package refcodec

import (
	"strings"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/index"
	"github.com/sinharash/entitypick/internal/template"
)

// DefaultSeparator is the reserved token between label and identifier
// fragment. It is guaranteed by convention not to occur in ordinary
// labels; decode splits on its last occurrence so a label that breaks
// the convention still yields a valid identifier.
const DefaultSeparator = "|||"

// Mode selects what a composite value carries.
type Mode string

const (
	// ModeComposite stores label + separator + identifier fragment.
	// The default and recommended form: decoding never depends on
	// label uniqueness.
	ModeComposite Mode = "label+identifier"

	// ModeLabelOnly stores just the rendered label. Valid only when
	// the template is guaranteed unique per record; decode falls back
	// to exact label matching.
	ModeLabelOnly Mode = "label-only"
)

// Fragment selects which identity fragment is embedded. Encoder and
// decoder must agree.
type Fragment string

const (
	// FragmentFull embeds the full canonical kind:namespace/name.
	FragmentFull Fragment = "full"

	// FragmentName embeds only the record name; kind and namespace
	// are supplied externally at decode time.
	FragmentName Fragment = "name"
)

// AmbiguousPolicy decides what decode does when a label-only value
// matches several records.
type AmbiguousPolicy string

const (
	// PickFirst resolves to the first match in index order and
	// reports Ambiguous=true.
	PickFirst AmbiguousPolicy = "pick-first"

	// FailOnAmbiguous returns an AmbiguousError instead of choosing.
	FailOnAmbiguous AmbiguousPolicy = "fail"
)

// Options configures one codec. The zero value means composite mode,
// full fragment, the default separator, and pick-first ambiguity.
type Options struct {
	Mode        Mode
	Fragment    Fragment
	Separator   string
	OnAmbiguous AmbiguousPolicy
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeComposite
	}
	if o.Fragment == "" {
		o.Fragment = FragmentFull
	}
	if o.Separator == "" {
		o.Separator = DefaultSeparator
	}
	if o.OnAmbiguous == "" {
		o.OnAmbiguous = PickFirst
	}
	return o
}

// Decoded is the result of decoding a composite value. Ambiguity is
// always reported here, never swallowed, so callers can warn without
// failing the overall operation.
type Decoded struct {
	Ref       catalog.EntityRef
	Label     string
	Ambiguous bool
}

// Encode renders the record's label under the template and, in
// composite mode, appends the configured identity fragment.
func Encode(rec catalog.Record, tmpl string, opts Options) string {
	opts = opts.withDefaults()
	label := template.Render(tmpl, rec)
	if opts.Mode == ModeLabelOnly {
		return label
	}
	switch opts.Fragment {
	case FragmentName:
		return label + opts.Separator + rec.Name()
	default:
		return label + opts.Separator + rec.Ref().String()
	}
}

// Decode recovers the canonical identifier from a composite value.
//
// When the value contains the separator, the tail after its last
// occurrence is the identity fragment; a name fragment is combined
// with the supplied kind and namespace (default "default"). This path
// needs no index scan, which is why composite mode is the
// higher-reliability default. When an index is supplied the identifier
// is validated against it and a NotFoundError surfaces stale values.
//
// Without a separator the value is treated as a bare label and matched
// exactly against the index: one match succeeds, several apply the
// ambiguity policy, none is a NotFoundError.
func Decode(value, kind, namespace string, ix *index.Index, opts Options) (Decoded, error) {
	opts = opts.withDefaults()
	if namespace == "" {
		namespace = catalog.DefaultNamespace
	}

	if cut := strings.LastIndex(value, opts.Separator); cut >= 0 {
		label := value[:cut]
		frag := value[cut+len(opts.Separator):]

		var ref catalog.EntityRef
		if opts.Fragment == FragmentName {
			if kind == "" {
				return Decoded{}, ErrMissingKind
			}
			ref = catalog.EntityRef{Kind: strings.ToLower(kind), Namespace: namespace, Name: frag}
		} else {
			parsed, err := catalog.ParseRef(frag)
			if err != nil {
				return Decoded{}, err
			}
			ref = parsed
		}

		if ix != nil {
			if _, ok := ix.Lookup(ref.String()); !ok {
				return Decoded{}, &NotFoundError{Value: value}
			}
		}
		return Decoded{Ref: ref, Label: label}, nil
	}

	// No separator: full label matching against the index.
	if ix == nil {
		return Decoded{}, &NotFoundError{Value: value}
	}
	refs := ix.LookupByLabel(value)
	switch {
	case len(refs) == 0:
		return Decoded{}, &NotFoundError{Value: value}
	case len(refs) == 1:
		ref, err := catalog.ParseRef(refs[0])
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Ref: ref, Label: value}, nil
	default:
		if opts.OnAmbiguous == FailOnAmbiguous {
			return Decoded{}, &AmbiguousError{Label: value, Refs: refs}
		}
		ref, err := catalog.ParseRef(refs[0])
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Ref: ref, Label: value, Ambiguous: true}, nil
	}
}
