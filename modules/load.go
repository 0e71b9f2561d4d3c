package modules

import (
	"github.com/iota-uz/slatrack/modules/recruitment"
	"github.com/iota-uz/slatrack/pkg/application"
)

var BuiltInModules = []application.Module{
	recruitment.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
