package check

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/raks/aegis/internal/domain"
)

// Common holds the parameters every file-scanning strategy understands.
type Common struct {
	FilePatterns        []string   `mapstructure:"filePatterns"`
	MatchMode           string     `mapstructure:"matchMode"`
	MatchCount          int        `mapstructure:"matchCount"`
	IncludeLinkedConfig bool       `mapstructure:"includeLinkedConfig"`
	ResolveProperties   *bool      `mapstructure:"resolveProperties"`
	Message             string     `mapstructure:"message"`
	CheckCondition      *Condition `mapstructure:"checkCondition"`
}

// resolveOr returns the resolveProperties flag, or def when unset.
func (c Common) resolveOr(def bool) bool {
	if c.ResolveProperties == nil {
		return def
	}
	return *c.ResolveProperties
}

// decode fills out from params. Scalars are converted loosely so rule files
// may write true, "true" or 1 interchangeably.
func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       boolToString,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return &domain.ConfigError{Err: err}
	}
	if err := dec.Decode(params); err != nil {
		return &domain.ConfigError{Err: err}
	}
	return nil
}

// boolToString renders booleans as "true"/"false" for string targets;
// the weak decoder would otherwise produce "1"/"0".
func boolToString(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.Bool && to.Kind() == reflect.String {
		return strconv.FormatBool(data.(bool)), nil
	}
	return data, nil
}

func upper(s, def string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}
