package cli

import (
	"github.com/rs/zerolog/log"

	"github.com/raks/aegis/internal/adapters/outbound/config"
	"github.com/raks/aegis/internal/adapters/outbound/gitinfo"
	"github.com/raks/aegis/internal/adapters/outbound/jsonpath"
	"github.com/raks/aegis/internal/adapters/outbound/properties"
	"github.com/raks/aegis/internal/adapters/outbound/rules"
	"github.com/raks/aegis/internal/adapters/outbound/scanner"
	"github.com/raks/aegis/internal/adapters/outbound/xpath"
	"github.com/raks/aegis/internal/application"
	"github.com/raks/aegis/internal/domain"
	"github.com/raks/aegis/internal/domain/check"
)

// newValidationService wires the engine to the filesystem adapters and the
// global logger. recorder may be nil.
func newValidationService(recorder domain.ValidationRecorder) *application.ValidationService {
	sc := scanner.New()
	return application.NewValidationService(application.ValidationDeps{
		Scanner: sc,
		Linked:  sc,
		Backends: check.Backends{
			XML:        xpath.New(),
			JSON:       jsonpath.New(),
			Properties: properties.New(),
			POM:        xpath.NewPOMReader(),
		},
		Configs:  config.New(),
		Rules:    rules.New(),
		Git:      gitinfo.New(),
		Recorder: recorder,
		Logger:   log.Logger,
	})
}

func newRuleService() *application.RuleService {
	return application.NewRuleService(config.New(), rules.New())
}

func projectPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
