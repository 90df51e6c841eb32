package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/querycache"
	"github.com/niksmo/storefront/internal/adapter/restapi"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

type broker struct {
	clientOpts []kgo.Opt
	topic      string
	serde      schema.Serde
	producer   port.InvalidationProducer
	consumer   port.InvalidationConsumer
}

type coreService struct {
	invalidator service.Invalidator
	dispatcher  service.Dispatcher
	catalog     service.Catalog
	presenter   service.Presenter
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	origin     string
	api        restapi.Client
	cache      *querycache.Cache
	broker     *broker
	service    *coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{
		ctx:     ctx,
		cfg:     cfg,
		origin:  uuid.NewString(),
		broker:  &broker{},
		service: &coreService{},
	}

	app.initLogger()
	app.initOutboundAdapters()
	app.initBroker()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger.With("origin", app.origin))
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	apiCfg := app.cfg.CatalogAPI
	api, err := restapi.New(
		apiCfg.BaseURL,
		apiCfg.Timeout,
		restapi.WithReadAttempts(
			apiCfg.ReadAttempts, retry.ExponentialBackoff(apiCfg.Timeout/10),
		),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.api = api
	app.cache = querycache.New(app.cfg.Cache.TTL)
}

// initBroker leaves invalidation local when no seed brokers are set.
func (app *App) initBroker() {
	const op = "App.initBroker"

	brokerCfg := app.cfg.Broker
	if !brokerCfg.Enabled() {
		slog.Info("broker is not configured, cache invalidation is local")
		return
	}

	srClient, err := sr.NewClient(sr.URLs(brokerCfg.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	topic := brokerCfg.Topics.CacheInvalidation
	serde, err := schema.NewInvalidationSerde(
		app.ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	clientOpts := app.kafkaClientOpts()

	producer, err := kafka.NewInvalidationProducer(
		kafka.ProducerClientOpt(app.ctx, clientOpts, topic),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.producer = producer
	app.broker.clientOpts = clientOpts
	app.broker.topic = topic
	app.broker.serde = serde
}

func (app *App) kafkaClientOpts() []kgo.Opt {
	const op = "App.kafkaClientOpts"

	brokerCfg := app.cfg.Broker
	if !brokerCfg.TLS.Enabled() {
		return kafka.ClientOpts(brokerCfg.SeedBrokers, nil)
	}
	tlsCfg, err := adapter.MakeTLSConfig(
		brokerCfg.TLS.CA, brokerCfg.TLS.Cert, brokerCfg.TLS.Key,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return kafka.ClientOpts(brokerCfg.SeedBrokers, tlsCfg)
}

func (app *App) initConsumer(applier port.InvalidationApplier) {
	const op = "App.initConsumer"

	consumer, err := kafka.NewInvalidationConsumer(
		kafka.ConsumerClientOpt(app.broker.clientOpts, app.broker.topic),
		kafka.ConsumerDecoderOpt(app.broker.serde),
		kafka.ConsumerApplierOpt(applier),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.consumer = consumer
}

func (app *App) initCoreService() {
	invalidator := service.NewInvalidator(
		app.origin, app.cache, app.broker.producer,
	)

	if app.broker.producer != nil {
		app.initConsumer(invalidator)
	}

	app.service.invalidator = invalidator
	app.service.dispatcher = service.NewDispatcher(app.api, app.api, invalidator)
	app.service.catalog = service.NewCatalog(app.api, app.api, app.cache)
	app.service.presenter = service.NewPresenter(domain.ImageResolver{
		BaseURL:     app.cfg.Images.BaseURL,
		DefaultPath: app.cfg.Images.DefaultPath,
	})
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	h, err := httphandler.NewCatalogHandler(
		app.service.catalog,
		app.service.dispatcher,
		app.service.dispatcher,
		app.service.presenter,
		httphandler.HandlerConfig{
			SessionCookie: app.cfg.Session.CookieName,
			SecureCookies: app.cfg.Session.Secure,
			CSRFKey:       []byte(app.cfg.Session.CSRFKey),
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr,
		httphandler.NewRouter(h),
		app.cfg.RequestTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	if app.broker.consumer != nil {
		go app.broker.consumer.Run(app.ctx)
	}

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.broker.consumer != nil {
		app.broker.consumer.Close()
	}
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
