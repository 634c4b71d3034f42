package main

import (
	"fmt"
	"time"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/config"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/fault"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/server"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/store"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/tracing"
)

// gatewayConfig is the full configuration for the gateway service.
type gatewayConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server     server.Config            `yaml:"server" mapstructure:"server"`
	Redis      store.RedisConfig        `yaml:"redis" mapstructure:"redis"`
	Tracing    tracing.OTLPConfig       `yaml:"tracing" mapstructure:"tracing"`
	Resilience resilienceConfig         `yaml:"resilience" mapstructure:"resilience"`
	Errors     fault.HandlerConfig      `yaml:"errors" mapstructure:"errors"`
	Health     healthConfig             `yaml:"health" mapstructure:"health"`
	Session    sessionConfig            `yaml:"session" mapstructure:"session"`
	Services   map[string]serviceConfig `yaml:"services" mapstructure:"services"`
}

// resilienceConfig drives the circuit breakers and the retry policy shared
// by every downstream call.
type resilienceConfig struct {
	FailureThreshold  int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	SuccessThreshold  int           `yaml:"success_threshold" mapstructure:"success_threshold"`
	ResetTimeout      time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout"`
	MaxAttempts       int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay      time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	CallTimeout       time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	MaxConcurrent     int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

type healthConfig struct {
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

type sessionConfig struct {
	// TTL is the sliding conversation expiry; every load and save renews it.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// serviceConfig describes one downstream collaborator.
type serviceConfig struct {
	URLs       []string `yaml:"urls" mapstructure:"urls"`
	Weights    []int    `yaml:"weights" mapstructure:"weights"`
	Strategy   string   `yaml:"strategy" mapstructure:"strategy"`
	HealthPath string   `yaml:"health_path" mapstructure:"health_path"`
}

// knownServices is the set of collaborators the orchestrator dispatches to.
var knownServices = []string{
	"speech", "dialect", "profiles", "schemes", "forms", "documents", "tracking",
}

// ApplyDefaults fills in every unset section.
func (c *gatewayConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "gram-sahayak-gateway"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Tracing.ApplyDefaults()

	if c.Resilience.FailureThreshold <= 0 {
		c.Resilience.FailureThreshold = 5
	}
	if c.Resilience.SuccessThreshold <= 0 {
		c.Resilience.SuccessThreshold = 2
	}
	if c.Resilience.ResetTimeout <= 0 {
		c.Resilience.ResetTimeout = 30 * time.Second
	}
	if c.Resilience.MaxAttempts <= 0 {
		c.Resilience.MaxAttempts = 3
	}
	if c.Resilience.InitialDelay <= 0 {
		c.Resilience.InitialDelay = 500 * time.Millisecond
	}
	if c.Resilience.MaxDelay <= 0 {
		c.Resilience.MaxDelay = 10 * time.Second
	}
	if c.Resilience.BackoffMultiplier <= 1 {
		c.Resilience.BackoffMultiplier = 2
	}
	if c.Resilience.CallTimeout <= 0 {
		c.Resilience.CallTimeout = 30 * time.Second
	}

	if c.Health.Interval <= 0 {
		c.Health.Interval = 30 * time.Second
	}
	if c.Health.CacheTTL <= 0 {
		c.Health.CacheTTL = 10 * time.Second
	}
	if c.Health.ProbeTimeout <= 0 {
		c.Health.ProbeTimeout = 3 * time.Second
	}

	if c.Session.TTL <= 0 {
		c.Session.TTL = time.Hour
	}

	if c.Services == nil {
		c.Services = make(map[string]serviceConfig)
	}
	for _, name := range knownServices {
		svc := c.Services[name]
		if len(svc.URLs) == 0 {
			svc.URLs = []string{fmt.Sprintf("http://localhost:9000/%s", name)}
		}
		if svc.Strategy == "" {
			svc.Strategy = "round_robin"
		}
		if svc.HealthPath == "" {
			svc.HealthPath = "/health"
		}
		c.Services[name] = svc
	}
}

// Validate checks every section.
func (c *gatewayConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	for name, svc := range c.Services {
		if len(svc.URLs) == 0 {
			return fmt.Errorf("services.%s.urls must not be empty", name)
		}
		if len(svc.Weights) > 0 && len(svc.Weights) != len(svc.URLs) {
			return fmt.Errorf("services.%s.weights must match urls (%d vs %d)", name, len(svc.Weights), len(svc.URLs))
		}
		switch svc.Strategy {
		case "round_robin", "least_conn", "weighted_round_robin":
		default:
			return fmt.Errorf("services.%s.strategy must be one of [round_robin, least_conn, weighted_round_robin] (got: %s)", name, svc.Strategy)
		}
	}
	return nil
}
