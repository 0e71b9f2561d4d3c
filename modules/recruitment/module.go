package recruitment

import (
	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/infrastructure/sources"
	"github.com/iota-uz/slatrack/modules/recruitment/presentation/controllers"
	"github.com/iota-uz/slatrack/modules/recruitment/services"
	"github.com/iota-uz/slatrack/pkg/application"
	"github.com/iota-uz/slatrack/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	configService, err := services.LoadConfigService(conf.Sla.StagesPath)
	if err != nil {
		// A board without stage configuration still works; every stage just
		// reports "No SLA".
		app.Logger().WithError(err).Warn("stage SLA config not loaded, all stages unconfigured")
		configService = services.NewConfigService(nil)
	}

	deriveOpts := sla.DeriveOptions{
		DueSoon:  conf.Sla.DueSoon,
		TimeZone: conf.Sla.TimeZone,
	}
	client := sources.NewClient(conf.Upstream, app.Logger())

	app.RegisterServices(
		configService,
		services.NewBoardService(client, configService, app.Clock(), app.EventPublisher(), deriveOpts, app.Logger()),
		services.NewCountdownService(app.Clock(), deriveOpts, conf.Sla.TickInterval),
	)
	app.RegisterControllers(
		controllers.NewBoardController(app),
		controllers.NewStreamController(app, conf.Sla.TickInterval),
	)
	return nil
}

func (m *Module) Name() string {
	return "recruitment"
}
