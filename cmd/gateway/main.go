// Command gateway runs the Gram Sahayak conversation gateway: the HTTP
// front that orchestrates speech, scheme, form, and tracking services into
// a single resilient conversation flow.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/balancer"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/collab"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/component"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/config"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/conversation"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/fault"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/health"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/resilience"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/server"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/store"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg gatewayConfig
	if err := config.LoadConfig("gateway", &cfg); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.New(&cfg.Logging, cfg.Name)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tracing: spans go to the OTLP collector when configured, otherwise
	// to the debug log.
	var exporter tracing.Exporter
	var otlp *tracing.OTLPExporter
	if cfg.Tracing.Enabled {
		var err error
		otlp, err = tracing.NewOTLPExporter(ctx, cfg.Name, cfg.Version, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing setup: %w", err)
		}
		exporter = otlp
	} else {
		exporter = tracing.NewLogExporter(log)
	}
	tracer := tracing.New(cfg.Name, exporter, log)

	// Load balancer pools for the downstream collaborators.
	lb := balancer.New(log)
	for name, svc := range cfg.Services {
		lb.Register(name, balancer.Strategy(svc.Strategy))
		for i, url := range svc.URLs {
			weight := 1
			if i < len(svc.Weights) {
				weight = svc.Weights[i]
			}
			lb.AddInstance(name, url, weight)
		}
	}

	clientCfg := collab.ClientConfig{Timeout: cfg.Resilience.CallTimeout}
	endpoint := func(name string) collab.Endpoint {
		return collab.NewBalancedEndpoint(lb, name)
	}
	speech := collab.NewSpeechClient(endpoint("speech"), clientCfg)
	collaborators := conversation.Collaborators{
		Transcriber: speech,
		Synthesizer: speech,
		Dialects:    collab.NewDialectClient(endpoint("dialect"), clientCfg),
		Profiles:    collab.NewProfileClient(endpoint("profiles"), clientCfg),
		Schemes:     collab.NewSchemeClient(endpoint("schemes"), clientCfg),
		Forms:       collab.NewFormClient(endpoint("forms"), clientCfg),
		Documents:   collab.NewDocumentClient(endpoint("documents"), clientCfg),
		Tracking:    collab.NewTrackingClient(endpoint("tracking"), clientCfg),
	}

	// Resilience: one breaker per collaborator, shared retry policy, and
	// the fallback executor tying them together.
	breakers := resilience.NewBreakerRegistry(resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Resilience.FailureThreshold,
		SuccessThreshold: cfg.Resilience.SuccessThreshold,
		ResetTimeout:     cfg.Resilience.ResetTimeout,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state changed", logger.Fields(
				logger.FieldService, name,
				"from", from.String(),
				"to", to.String(),
			))
		},
	})
	exec := resilience.NewExecutor(resilience.ExecutorConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:       cfg.Resilience.MaxAttempts,
			InitialDelay:      cfg.Resilience.InitialDelay,
			MaxDelay:          cfg.Resilience.MaxDelay,
			BackoffMultiplier: cfg.Resilience.BackoffMultiplier,
		},
		CallTimeout:   cfg.Resilience.CallTimeout,
		MaxConcurrent: cfg.Resilience.MaxConcurrent,
	}, breakers, log)

	faults := fault.NewHandler(cfg.Errors, log)

	// Conversation state lives in Redis with a sliding TTL.
	redisStore := store.NewRedis(cfg.Redis, log)
	states := conversation.NewStateStore(redisStore, cfg.Session.TTL)

	orch := conversation.NewOrchestrator(states, collaborators, exec, faults, tracer, log)

	// Health monitor: one probe per collaborator plus Redis; transitions
	// feed the load balancer.
	monitor := health.NewMonitor(cfg.Health.CacheTTL, log)
	monitor.OnTransition = func(name string, healthy bool) {
		for _, inst := range lb.Instances(name) {
			lb.MarkHealthy(name, inst.URL, healthy)
		}
	}
	for name, svc := range cfg.Services {
		monitor.Register(health.NewHTTPProbe(name, svc.URLs[0]+svc.HealthPath, cfg.Health.ProbeTimeout))
	}
	monitor.Register(health.ProbeFunc{ProbeName: "redis", Fn: redisStore.Ping})

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(log)
	api := &server.API{
		Orchestrator: orch,
		Faults:       faults,
		Breakers:     breakers,
		Executor:     exec,
		Monitor:      monitor,
	}
	api.Register(srv.GinEngine())

	registry := component.NewRegistry()
	if err := registry.Register(store.NewComponent(redisStore)); err != nil {
		return err
	}
	if err := registry.Register(server.NewComponent(srv)); err != nil {
		return err
	}
	if err := registry.StartAll(ctx); err != nil {
		return err
	}

	stopCh := make(chan struct{})
	go monitor.Run(stopCh, cfg.Health.Interval)
	go tracer.RunCleanup(stopCh, time.Minute, 10*time.Minute)

	log.Info("gateway started", logger.Fields(
		"addr", srv.Addr(),
		"environment", cfg.Environment,
		"services", len(cfg.Services),
	))

	<-ctx.Done()
	close(stopCh)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	err := registry.StopAll(shutdownCtx)
	if otlp != nil {
		_ = otlp.Shutdown(shutdownCtx)
	}
	return err
}
