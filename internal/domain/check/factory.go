package check

import (
	"errors"
	"fmt"
	"sort"

	"github.com/raks/aegis/internal/domain"
)

// Constructor decodes normalized parameters into a ready strategy.
type Constructor func(params map[string]any) (Strategy, error)

var defaultConstructors = map[Kind]Constructor{
	KindTokenSearch:     newTokenSearch,
	KindXMLGeneric:      newXMLGeneric,
	KindJSONGeneric:     newJSONGeneric,
	KindPropertyGeneric: newPropertyGeneric,
	KindPOMRequired:     newPOMRequired,
	KindPOMForbidden:    newPOMForbidden,
	KindConditional:     newConditional,
	KindProjectContext:  newProjectContext,
	KindFileExists:      newFileExists,
	KindPOMGeneric:      newPOMGeneric,
	KindXMLExternalized: newXMLExternalized,
	KindClientIDMap:     newClientIDMap,
}

// Factory maps declared check types to strategies.
type Factory struct {
	table map[Kind]Constructor
}

// NewFactory returns a factory with every built-in kind registered.
func NewFactory() *Factory {
	table := make(map[Kind]Constructor, len(defaultConstructors))
	for k, c := range defaultConstructors {
		table[k] = c
	}
	return &Factory{table: table}
}

// Register adds, or replaces, the constructor for kind.
func (f *Factory) Register(kind Kind, ctor Constructor) {
	f.table[kind] = ctor
}

// Create normalizes chk and builds its strategy. An unregistered type
// returns an error wrapping domain.ErrUnknownCheckType; undecodable
// parameters return a *domain.ConfigError.
func (f *Factory) Create(chk domain.Check) (Strategy, error) {
	kind, params := Normalize(chk.Type, chk.Params)
	ctor, ok := f.table[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCheckType, chk.Type)
	}
	s, err := ctor(params)
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, fmt.Errorf("creating %s check: %w", kind, err)
	}
	return s, nil
}

// Kinds lists the registered kinds in name order.
func (f *Factory) Kinds() []Kind {
	kinds := make([]Kind, 0, len(f.table))
	for k := range f.table {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Lint creates chk, and any nested checks, and reports the first
// configuration problem without executing anything.
func (f *Factory) Lint(chk domain.Check) error {
	s, err := f.Create(chk)
	if err != nil {
		return err
	}
	if v, ok := s.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c, ok := s.(*conditional); ok {
		for _, nested := range append(append([]domain.Check(nil), c.cfg.Preconditions...), c.cfg.OnSuccess...) {
			if err := f.Lint(nested); err != nil {
				return fmt.Errorf("nested %s: %w", nested.Label(), err)
			}
		}
	}
	return nil
}
