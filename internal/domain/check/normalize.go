package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/camelcase"

	"github.com/raks/aegis/internal/domain/eval"
)

// alias maps a legacy type name onto a registered kind. derive runs before
// parameter promotion and finish after it.
type alias struct {
	kind   Kind
	derive func(typ string, p map[string]any)
	finish func(typ string, p map[string]any)
}

var aliases = map[string]alias{}

func init() {
	for _, name := range []string{
		"GENERIC_TOKEN_SEARCH", "GENERIC_TOKEN_SEARCH_FORBIDDEN", "GENERIC_TOKEN_SEARCH_REQUIRED",
		"MANDATORY_SUBSTRING_CHECK", "GENERIC_CODE_CHECK", "GENERIC_CODE_TOKEN_CHECK",
		"SUBSTRING_TOKEN_CHECK", "DLP_REFERENCE_CHECK", "FORBIDDEN_TOKEN_IN_ELEMENT",
		"GENERIC_CONFIG_TOKEN_CHECK",
	} {
		aliases[name] = alias{kind: KindTokenSearch, derive: tokenMode}
	}
	for _, name := range []string{
		"XML_XPATH_EXISTS", "XML_ATTRIBUTE_EXISTS", "XML_XPATH_NOT_EXISTS", "XML_ATTRIBUTE_NOT_EXISTS",
		"XML_ELEMENT_CONTENT_REQUIRED", "XML_ELEMENT_CONTENT_FORBIDDEN", "XML_XPATH_OPTIONAL",
	} {
		aliases[name] = alias{kind: KindXMLGeneric, derive: xmlMode, finish: synthesizeXPath}
	}
	for _, name := range []string{
		"GENERIC_XML_VALIDATION", "IBM_MQ_CIPHER_CHECK", "UNSUPPORTED_XML_ATTRIBUTE",
		"CRYPTO_JCE_ENCRYPT_PBE_CHECK", "CRYPTO_JCE_CONFIG_TYPE_CHECK",
	} {
		aliases[name] = alias{kind: KindXMLGeneric, derive: xmlValidation, finish: synthesizeXPath}
	}

	aliases["POM_DEPENDENCY_ADDED"] = alias{kind: KindPOMRequired, derive: pomSection(pomDependencies, "requiredDependencies", "dependencies")}
	aliases["POM_DEPENDENCY_REMOVED"] = alias{kind: KindPOMForbidden, derive: pomSection(pomDependencies, "dependencies", "forbiddenDependencies")}
	aliases["POM_PLUGIN_REMOVED"] = alias{kind: KindPOMForbidden, derive: pomSection(pomPlugins, "plugins", "forbiddenPlugins")}

	aliases["JSON_VALIDATION_REQUIRED"] = alias{kind: KindJSONGeneric, finish: jsonRequired}
	aliases["JSON_VALIDATION_OPTIONAL"] = alias{kind: KindJSONGeneric, finish: jsonRequired}
	aliases["JSON_VALIDATION_FORBIDDEN"] = alias{kind: KindJSONGeneric, finish: jsonForbidden}

	for _, name := range []string{"GENERIC_PROPERTY_FILE", "CONFIG_PROPERTY_EXISTS", "CONFIG_POLICY_EXISTS"} {
		aliases[name] = alias{kind: KindPropertyGeneric, derive: forceMode(modeExists)}
	}
	aliases["MANDATORY_PROPERTY_VALUE_CHECK"] = alias{kind: KindPropertyGeneric, derive: forceMode(modeValueMatch)}
	aliases["OPTIONAL_PROPERTY_VALUE_CHECK"] = alias{kind: KindPropertyGeneric, derive: forceMode(modeOptionalMatch)}
}

// Normalize canonicalizes a declared check type and rewrites legacy parameter
// shorthands into the form the strategies decode. params is never modified.
func Normalize(typ string, params map[string]any) (Kind, map[string]any) {
	name := CanonicalType(typ)
	p := make(map[string]any, len(params)+2)
	for k, v := range params {
		p[k] = v
	}

	a, isAlias := aliases[name]
	kind := Kind(name)
	if isAlias {
		kind = a.kind
		if a.derive != nil {
			a.derive(name, p)
		}
	}
	promote(p)
	if isAlias && a.finish != nil {
		a.finish(name, p)
	}
	return kind, p
}

// CanonicalType turns spellings such as "TokenSearchCheck" or "tokenSearch"
// into the upper snake-case registry name.
func CanonicalType(typ string) string {
	name := strings.TrimSpace(typ)
	if !strings.Contains(name, "_") && strings.ToUpper(name) != name {
		name = strings.Join(camelcase.Split(name), "_")
	}
	name = strings.ToUpper(name)
	if known(name) {
		return name
	}
	if trimmed := strings.TrimSuffix(name, "_CHECK"); trimmed != name && known(trimmed) {
		return trimmed
	}
	return name
}

func known(name string) bool {
	if _, ok := aliases[name]; ok {
		return true
	}
	_, ok := defaultConstructors[Kind(name)]
	return ok
}

// promote rewrites single-value and extension shorthands into list parameters.
func promote(p map[string]any) {
	if v, ok := p["filePattern"]; ok {
		p["filePatterns"] = []any{v}
	}
	if v, ok := p["targetFiles"]; ok {
		p["filePatterns"] = v
	}
	if exts := stringList(p["fileExtensions"]); len(exts) > 0 {
		patterns := make([]any, 0, len(exts))
		for _, ext := range exts {
			patterns = append(patterns, "**/*."+strings.TrimPrefix(ext, "."))
		}
		p["filePatterns"] = patterns
	}
	if v, ok := p["token"]; ok {
		if _, has := p["tokens"]; !has {
			p["tokens"] = []any{v}
		}
	}
	setDefault(p, "resolveProperties", p["resolveProperty"])
	setDefault(p, "includeLinkedConfig", p["resolveLinkedConfig"])
}

func setDefault(p map[string]any, key string, v any) {
	if v == nil {
		return
	}
	if _, ok := p[key]; !ok {
		p[key] = v
	}
}

func forceMode(mode string) func(string, map[string]any) {
	return func(_ string, p map[string]any) { p["mode"] = mode }
}

func tokenMode(typ string, p map[string]any) {
	if strings.Contains(typ, "REQUIRED") || strings.Contains(typ, "MANDATORY") {
		setDefault(p, "mode", modeRequired)
		return
	}
	setDefault(p, "mode", modeForbidden)
}

// xmlValidation maps the validationType form of an XML check onto the
// xpath, mode and value parameters of the generic XML strategy.
func xmlValidation(_ string, p map[string]any) {
	vt, _ := p["validationType"].(string)
	if vt == "" {
		return
	}
	if path, ok := p["path"].(string); ok && path != "" {
		setDefault(p, "filePatterns", []any{path})
	}
	setDefault(p, "filePatterns", []any{"src/main/mule/*.xml"})
	setDefault(p, "message", p["failureMessage"])

	el, _ := p["elementName"].(string)
	el = localName(el)
	switch strings.ToUpper(vt) {
	case modeExists:
		p["mode"] = modeExists
		setDefault(p, "matchMode", eval.ModeAnyFile)
	case modeNotExists:
		p["mode"] = modeNotExists
	case "ATTRIBUTE_VALUE":
		p["mode"] = modeOptionalMatch
		setDefault(p, "resolveProperties", p["propertyResolution"])
	case "ATTRIBUTE_EXISTS":
		p["mode"] = modeNotExists
		if attr, _ := p["requiredAttribute"].(string); el != "" && attr != "" {
			setDefault(p, "xpath", fmt.Sprintf("//*[local-name()='%s' and not(@%s)]", el, attr))
		}
	case "FORBIDDEN_VALUE":
		p["mode"] = modeNotExists
		setDefault(p, "operator", "CONTAINS")
		if el != "" {
			setDefault(p, "xpath", fmt.Sprintf("//*[local-name()='%s']/@*", el))
		}
	case "FORBIDDEN_ATTRIBUTE":
		p["mode"] = modeNotExists
		setDefault(p, "forbiddenAttributes", p["attributes"])
	default:
		return
	}
	delete(p, "validationType")
}

// pomSection returns a derive that moves the entries under from to to, as
// coordinate maps, and restricts the POM check to section.
func pomSection(section, from, to string) func(string, map[string]any) {
	return func(_ string, p map[string]any) {
		p["validationType"] = section
		if _, ok := p[to]; ok {
			return
		}
		raw, ok := p[from].([]any)
		if !ok {
			return
		}
		out := make([]any, 0, len(raw))
		for _, it := range raw {
			out = append(out, coordinateMap(it))
		}
		p[to] = out
		delete(p, from)
	}
}

// coordinateMap turns a "groupId:artifactId[:version]" string into its map
// form. Any other value is returned unchanged.
func coordinateMap(v any) any {
	ref, ok := v.(string)
	if !ok {
		return v
	}
	parts := strings.SplitN(ref, ":", 3)
	m := map[string]any{"groupId": parts[0]}
	if len(parts) > 1 {
		m["artifactId"] = parts[1]
	}
	if len(parts) > 2 {
		m["version"] = parts[2]
	}
	return m
}

func xmlMode(typ string, p map[string]any) {
	switch {
	case strings.Contains(typ, "NOT_EXISTS") || strings.Contains(typ, "FORBIDDEN"):
		setDefault(p, "mode", modeNotExists)
	case strings.Contains(typ, "OPTIONAL"):
		setDefault(p, "mode", modeOptionalMatch)
	default:
		setDefault(p, "mode", modeExists)
	}
}

// synthesizeXPath builds an xpath from the legacy element shorthands. The first
// applicable shorthand wins and an explicit xpath is never replaced.
func synthesizeXPath(_ string, p map[string]any) {
	if _, ok := p["xpath"]; ok {
		return
	}
	if exprs, ok := p["xpathExpressions"].([]any); ok && len(exprs) > 0 {
		if first, ok := exprs[0].(map[string]any); ok {
			if x, ok := first["xpath"].(string); ok && x != "" {
				p["xpath"] = x
				return
			}
		}
	}

	var union []string
	elements, attrs := stringList(p["elements"]), stringList(p["forbiddenAttributes"])
	for _, el := range elements {
		for _, at := range attrs {
			union = append(union, fmt.Sprintf("//*[local-name()='%s' and @%s]", el, at))
		}
	}
	if len(union) == 0 {
		sets, _ := p["elementAttributeSets"].([]any)
		for _, raw := range sets {
			set, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			el := localName(fmt.Sprint(set["element"]))
			attrs, _ := set["attributes"].(map[string]any)
			if set["element"] == nil || len(attrs) == 0 {
				continue
			}
			names := make([]string, 0, len(attrs))
			for k := range attrs {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				union = append(union, fmt.Sprintf("//*[local-name()='%s' and @%s='%v']", el, k, attrs[k]))
			}
		}
	}
	if len(union) > 0 {
		p["xpath"] = strings.Join(union, " | ")
		return
	}
	if el, ok := p["element"].(string); ok && el != "" {
		p["xpath"] = fmt.Sprintf("//*[local-name()='%s']", localName(el))
	}
}

func localName(el string) string {
	if i := strings.LastIndex(el, ":"); i >= 0 {
		return el[i+1:]
	}
	return el
}

var jsonShorthands = []string{"requiredElements", "requiredFields", "exactVersions", "minVersions"}

func jsonRequired(typ string, p map[string]any) {
	shorthand := false
	for _, k := range jsonShorthands {
		if _, ok := p[k]; ok {
			shorthand = true
		}
	}
	if !shorthand {
		setDefault(p, "jsonPath", "$")
	}
	switch {
	case strings.Contains(typ, "OPTIONAL"):
		setDefault(p, "mode", modeOptionalMatch)
	case p["expectedValue"] != nil:
		setDefault(p, "mode", modeValueMatch)
	default:
		setDefault(p, "mode", modeExists)
	}
}

func jsonForbidden(_ string, p map[string]any) {
	p["mode"] = modeNotExists
	if _, ok := p["jsonPath"]; ok {
		return
	}
	if forbidden := stringList(p["forbiddenElements"]); len(forbidden) > 0 {
		p["jsonPath"] = "$['" + strings.Join(forbidden, "','") + "']"
	}
}

// stringList reads a list parameter as strings. A single string is a one-element list.
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			out = append(out, fmt.Sprint(it))
		}
		return out
	default:
		return nil
	}
}

// Aliases returns every legacy type name and the kind it resolves to.
func Aliases() map[string]Kind {
	out := make(map[string]Kind, len(aliases))
	for name, a := range aliases {
		out[name] = a.kind
	}
	return out
}
