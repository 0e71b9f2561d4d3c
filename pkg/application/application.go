package application

import (
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/slatrack/pkg/clock"
	"github.com/iota-uz/slatrack/pkg/eventbus"
)

// Controller is anything that can mount routes on the shared router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module wires its services and controllers into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	EventPublisher() eventbus.EventBus
	Clock() *clock.Store
	Logger() *logrus.Logger
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
}

type ApplicationOptions struct {
	EventBus eventbus.EventBus
	Clock    *clock.Store
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		eventPublisher: opts.EventBus,
		clock:          opts.Clock,
		logger:         opts.Logger,
		services:       make(map[reflect.Type]interface{}),
	}
}

type application struct {
	eventPublisher eventbus.EventBus
	clock          *clock.Store
	logger         *logrus.Logger
	controllers    map[string]Controller
	controllerKeys []string
	middleware     []mux.MiddlewareFunc
	services       map[reflect.Type]interface{}
}

func (a *application) Controllers() []Controller {
	registered := make([]Controller, 0, len(a.controllerKeys))
	for _, key := range a.controllerKeys {
		registered = append(registered, a.controllers[key])
	}
	return registered
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

func (a *application) EventPublisher() eventbus.EventBus {
	return a.eventPublisher
}

func (a *application) Clock() *clock.Store {
	return a.clock
}

func (a *application) Logger() *logrus.Logger {
	return a.logger
}

func (a *application) RegisterControllers(controllers ...Controller) {
	if a.controllers == nil {
		a.controllers = make(map[string]Controller)
	}
	for _, c := range controllers {
		key := c.Key()
		if _, ok := a.controllers[key]; !ok {
			a.controllerKeys = append(a.controllerKeys, key)
		}
		a.controllers[key] = c
	}
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

func (a *application) RegisterServices(services ...interface{}) {
	for _, s := range services {
		a.services[reflect.TypeOf(s).Elem()] = s
	}
}

// Service returns the registered instance matching the example's type, e.g.
// app.Service(services.BoardService{}).(*services.BoardService).
func (a *application) Service(service interface{}) interface{} {
	svc, ok := a.services[reflect.TypeOf(service)]
	if !ok {
		panic(fmt.Sprintf("service %s not registered", reflect.TypeOf(service).Name()))
	}
	return svc
}

// Load registers each module in order, failing fast on the first error.
func Load(app Application, modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(app); err != nil {
			return fmt.Errorf("module %s: %w", m.Name(), err)
		}
	}
	return nil
}
