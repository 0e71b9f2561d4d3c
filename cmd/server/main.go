package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/iota-uz/slatrack/modules"
	"github.com/iota-uz/slatrack/pkg/application"
	"github.com/iota-uz/slatrack/pkg/clock"
	"github.com/iota-uz/slatrack/pkg/configuration"
	"github.com/iota-uz/slatrack/pkg/eventbus"
	"github.com/iota-uz/slatrack/pkg/logging"
	"github.com/iota-uz/slatrack/pkg/metrics"
	"github.com/iota-uz/slatrack/pkg/middleware"
	"github.com/iota-uz/slatrack/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	clk := clock.NewStore(logger, clock.WithTickHook(func(subscribers int) {
		metrics.ClockTicks.Inc()
		metrics.ClockSubscribers.Set(float64(subscribers))
	}))

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Clock:    clk,
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	app.RegisterMiddleware(
		middleware.Traced("slatrack"),
		middleware.LogRequests(logger),
		middleware.Cors(conf.AllowedOrigins...),
	)
	if conf.RateLimit.Enabled {
		app.RegisterMiddleware(middleware.RateLimit(conf.RateLimit.GlobalRPS))
	}
	app.RegisterControllers(server.NewHealthController())
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	httpServer := server.NewHTTPServer(
		app,
		http.NotFoundHandler(),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}),
	)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		logger.Info("shutting down")
		conf.Unload()
		os.Exit(0)
	}()

	logger.Infof("listening on %s", conf.SocketAddress)
	if err := httpServer.Start(conf.SocketAddress); err != nil {
		panic(err)
	}
}
