// Package properties is the Java-properties backend built on magiconair/properties.
package properties

import (
	"fmt"

	"github.com/magiconair/properties"

	"github.com/raks/aegis/internal/domain"
)

// Parser implements domain.PropertiesParser. Values are returned as written:
// ${...} references are left for the placeholder resolver.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(content []byte) (*domain.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	loaded, err := l.LoadBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}
	out := domain.NewProperties()
	for _, k := range loaded.Keys() {
		v, _ := loaded.Get(k)
		out.Set(k, v)
	}
	return out, nil
}
