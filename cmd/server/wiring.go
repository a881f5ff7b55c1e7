package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokengate/internal/compliance"
	compliancemetrics "tokengate/internal/compliance/metrics"
	"tokengate/internal/custodian"
	custodianmetrics "tokengate/internal/custodian/metrics"
	"tokengate/internal/deployment"
	idmetrics "tokengate/internal/identity/metrics"
	idservice "tokengate/internal/identity/service"
	idstore "tokengate/internal/identity/store"
	"tokengate/internal/indexer"
	indexmetrics "tokengate/internal/indexer/metrics"
	jwttoken "tokengate/internal/jwt_token"
	"tokengate/internal/jwt_token/revocation"
	"tokengate/internal/platform/config"
	"tokengate/internal/platform/kafka"
	kafkaconsumer "tokengate/internal/platform/kafka/consumer"
	"tokengate/internal/platform/kafka/producer"
	httpmetrics "tokengate/internal/platform/metrics"
	"tokengate/internal/platform/postgres"
	"tokengate/internal/platform/redis"
	"tokengate/internal/session"
	"tokengate/internal/token"
	tokenhandler "tokengate/internal/token/handler"
	tokenmetrics "tokengate/internal/token/metrics"
	tokenstore "tokengate/internal/token/store"
	"tokengate/pkg/platform/circuit"
	"tokengate/pkg/platform/events"
	eventconsumer "tokengate/pkg/platform/events/consumer"
	"tokengate/pkg/platform/events/publisher"
	"tokengate/pkg/platform/events/relay"
	eventmemory "tokengate/pkg/platform/events/store/memory"
	eventpostgres "tokengate/pkg/platform/events/store/postgres"
	"tokengate/pkg/platform/events/stream"
	"tokengate/pkg/platform/httputil"
	adminmw "tokengate/pkg/platform/middleware/admin"
	authmw "tokengate/pkg/platform/middleware/auth"
	"tokengate/pkg/platform/middleware/request"
	"tokengate/pkg/platform/middleware/requesttime"
	"tokengate/pkg/platform/tx"
)

// infra holds the optional backing services. Nil fields are disabled.
type infra struct {
	postgres *postgres.Handles
	redis    *redis.Client
	producer *producer.Producer
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}
	var err error
	if in.postgres, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		return nil, err
	}
	if in.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		in.Close()
		return nil, err
	}
	if len(cfg.Kafka.Brokers) > 0 {
		topics := make([]string, 0, len(events.Categories()))
		for _, c := range events.Categories() {
			topics = append(topics, events.CategoryTopic(cfg.Kafka.Topic, c))
		}
		if err := kafka.EnsureTopics(ctx, cfg.Kafka.Brokers, cfg.Kafka.Partitions, cfg.Kafka.Replication, topics...); err != nil {
			in.Close()
			return nil, err
		}
		if in.producer, err = producer.New(cfg.Kafka.Brokers); err != nil {
			in.Close()
			return nil, err
		}
	}
	log.Info("infrastructure ready",
		"postgres", in.postgres != nil,
		"redis", in.redis != nil,
		"kafka", in.producer != nil,
	)
	return in, nil
}

func (in *infra) Close() {
	if in.producer != nil {
		in.producer.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.postgres != nil {
		_ = in.postgres.Close()
	}
}

func (in *infra) health(ctx context.Context) map[string]string {
	status := map[string]string{}
	check := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			status[name] = err.Error()
			return
		}
		status[name] = "ok"
	}
	if in.postgres != nil {
		check("postgres", in.postgres.Health)
	}
	if in.redis != nil {
		check("redis", in.redis.Health)
	}
	if in.producer != nil {
		check("kafka", in.producer.Ping)
	}
	return status
}

type app struct {
	deployment *deployment.Deployment
	router     http.Handler
	workers    []func(context.Context) error
}

func buildApp(ctx context.Context, cfg config.Config, in *infra, log *slog.Logger) (*app, error) {
	if cfg.Server.Bootstrap == "" {
		return nil, errors.New("no bootstrap deployment configured (TOKENGATE_BOOTSTRAP)")
	}
	spec, err := deployment.Load(cfg.Server.Bootstrap)
	if err != nil {
		return nil, err
	}

	tm := tokenmetrics.New()
	projection := indexer.New(indexer.WithLogger(log), indexer.WithMetrics(indexmetrics.New()))
	hub := stream.NewHub(stream.WithLogger(log))

	// Without Kafka the projection follows commits in process.
	live := []events.Listener{hub}
	if in.producer == nil {
		live = append(live, projection)
	}

	var outbox events.Outbox = eventmemory.NewInMemoryStore()
	opts := deployment.Options{Logger: log}
	tokenOpts := []token.Option{
		token.WithMetrics(tm),
		token.WithListeners(live...),
		token.WithComplianceOptions(compliance.WithLogger(log), compliance.WithMetrics(compliancemetrics.New())),
		token.WithCustodianOptions(custodian.WithMetrics(custodianmetrics.New())),
	}

	if in.postgres != nil {
		if err := eventpostgres.Migrate(ctx, in.postgres.DB); err != nil {
			return nil, err
		}
		snapshots := tokenstore.NewPostgres(in.postgres.DB)
		if err := snapshots.Migrate(ctx); err != nil {
			return nil, err
		}
		outbox = eventpostgres.New(in.postgres.DB)
		opts.Snapshots = snapshots
		tokenOpts = append(tokenOpts, token.WithTxRunner(tx.NewSQLRunner(in.postgres.DB)))
	}
	tokenOpts = append(tokenOpts, token.WithPublisher(publisher.New(outbox, publisher.WithLogger(log), publisher.WithMetrics(tm))))

	switch {
	case in.postgres != nil:
		if err := idstore.NewPostgres(in.postgres.Pool, common.Address{}).Migrate(ctx); err != nil {
			return nil, err
		}
		pool := in.postgres.Pool
		opts.IdentityStore = func(registry common.Address) idstore.Store { return idstore.NewPostgres(pool, registry) }
	case in.redis != nil:
		client := in.redis.Client
		opts.IdentityStore = func(registry common.Address) idstore.Store { return idstore.NewRedis(client, registry) }
	}

	registryEvents := publisher.New(outbox,
		publisher.WithLogger(log),
		publisher.WithMetrics(tm),
		publisher.WithListeners(live...),
	)
	opts.TokenOptions = tokenOpts
	opts.RegistryOptions = []idservice.Option{
		idservice.WithLogger(log),
		idservice.WithMetrics(idmetrics.New()),
		idservice.WithPublisher(registryEvents),
	}

	d, err := deployment.Build(ctx, spec, opts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap deployment: %w", err)
	}

	a := &app{deployment: d}
	if in.producer != nil {
		workers, err := eventWorkers(cfg, outbox, in.producer, projection, tm, log)
		if err != nil {
			return nil, err
		}
		a.workers = workers
	}

	a.router, err = newRouter(cfg, in, d, projection, hub, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// eventWorkers relays the outbox to Kafka and feeds the projection back from it.
func eventWorkers(cfg config.Config, outbox events.Outbox, p *producer.Producer, projection *indexer.Projection, tm *tokenmetrics.Metrics, log *slog.Logger) ([]func(context.Context) error, error) {
	relayWorker, err := relay.New(outbox, p, cfg.Kafka.Topic,
		relay.WithInterval(cfg.Events.PollInterval),
		relay.WithBatchSize(cfg.Events.BatchSize),
		relay.WithLogger(log),
		relay.WithMetrics(tm),
		relay.WithBreaker(circuit.New("kafka-relay")),
	)
	if err != nil {
		return nil, err
	}

	handler := eventconsumer.NewEventHandler(projection, log)
	router := eventconsumer.NewRouter(log, nil)
	for _, c := range events.Categories() {
		router.Register(events.CategoryTopic(cfg.Kafka.Topic, c), handler)
	}
	consumer, err := kafkaconsumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, router.Topics(), router, log)
	if err != nil {
		return nil, err
	}

	return []func(context.Context) error{
		untilCancelled(relayWorker.Run),
		untilCancelled(func(ctx context.Context) error {
			defer consumer.Close()
			return consumer.Run(ctx)
		}),
	}, nil
}

func untilCancelled(run func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func newRouter(cfg config.Config, in *infra, d *deployment.Deployment, projection *indexer.Projection, hub *stream.Hub, log *slog.Logger) (http.Handler, error) {
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	var trl interface {
		session.Revoker
		authmw.TokenRevocationChecker
	} = revocation.NewInMemoryTRL()
	if in.redis != nil {
		trl = revocation.NewRedisTRL(in.redis.Client)
	}
	sessions, err := session.NewService(jwtService, trl, log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(httpmetrics.New().Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := in.health(r.Context())
		code := http.StatusOK
		for _, s := range status {
			if s != "ok" {
				code = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, code, map[string]any{"status": http.StatusText(code), "dependencies": status})
	})
	// The websocket stream must stay outside the request timeout.
	r.Handle("/events/ws", hub)

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.ContentTypeJSON)

		indexer.NewHandler(projection).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(cfg.Server.AdminToken, log))
			session.NewHandler(sessions, log).Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), trl, log))
			tokenhandler.New(tokenhandler.FromDirectory(d.Directory), log).Register(r)
		})
	})
	return r, nil
}
