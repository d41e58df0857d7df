// Package check implements the check strategies a rule is made of and the
// factory that maps a declared check type to its strategy.
//
// Every strategy follows the same shape: an optional checkCondition gate,
// required-parameter validation, file discovery through Env, per-file
// extraction and comparison, and match-mode aggregation into one
// domain.CheckResult.
//
// Token search keeps a deliberate asymmetry: with mode FORBIDDEN and logic AND
// a file fails only when every listed token is present in it.
package check

import (
	"github.com/raks/aegis/internal/domain"
)

// Kind identifies a registered strategy.
type Kind string

const (
	KindTokenSearch     Kind = "TOKEN_SEARCH"
	KindXMLGeneric      Kind = "XML_GENERIC"
	KindJSONGeneric     Kind = "JSON_GENERIC"
	KindPropertyGeneric Kind = "PROPERTY_GENERIC"
	KindPOMRequired     Kind = "POM_VALIDATION_REQUIRED"
	KindPOMForbidden    Kind = "POM_VALIDATION_FORBIDDEN"
	KindConditional     Kind = "CONDITIONAL_CHECK"
	KindProjectContext  Kind = "PROJECT_CONTEXT"
	KindFileExists      Kind = "FILE_EXISTS"
	KindPOMGeneric      Kind = "GENERIC_POM_VALIDATION"
	KindXMLExternalized Kind = "XML_ATTRIBUTE_EXTERNALIZED"
	KindClientIDMap     Kind = "CLIENTIDMAP_VALIDATOR"
)

// Strategy evaluates one check against the project described by env.
// Implementations report every problem through the returned result.
type Strategy interface {
	Execute(env *Env, chk domain.Check) domain.CheckResult
}

// Backends are the parsers strategies extract values with.
type Backends struct {
	XML        domain.XMLQuerier
	JSON       domain.JSONQuerier
	Properties domain.PropertiesParser
	POM        domain.POMReader
}
