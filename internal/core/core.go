// Package core wires the whole trading-assistant surface together:
// audit, kill switch, broker adapter, simulator, risk policy, approval
// workflow, auto-approval, order submission, cancel/modify, the tool
// gateway, and the export scheduler, all constructed from a single
// loaded Config.
package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradegate/internal/approval"
	"tradegate/internal/audit"
	"tradegate/internal/autoapproval"
	"tradegate/internal/broker"
	"tradegate/internal/calendar"
	"tradegate/internal/cancelmodify"
	"tradegate/internal/config"
	"tradegate/internal/edgestability"
	"tradegate/internal/killswitch"
	"tradegate/internal/observability"
	"tradegate/internal/risk"
	"tradegate/internal/scheduler"
	"tradegate/internal/simulator"
	"tradegate/internal/submitter"
	"tradegate/internal/toolgateway"
)

// Core aggregates every constructed component a running deployment
// needs. cmd/tradegate/main.go builds one of these and hands it to the
// HTTP server.
type Core struct {
	Config *config.Config

	Audit      *audit.Logger
	KillSwitch *killswitch.Switch
	Broker     broker.Broker

	SimulatorConfig simulator.Config
	RiskPolicy      *risk.PolicyStore
	RiskEvaluator   *risk.Evaluator
	VolatilityMon   *edgestability.Monitor
	Session         *calendar.Session

	AutoApproval *autoapproval.Policy
	Approval     *approval.Service
	Submitter    *submitter.Submitter
	CancelModify *cancelmodify.Service

	ToolGateway *toolgateway.Gateway
	Scheduler   *scheduler.Scheduler
}

// Build constructs a Core from cfg. db may be nil, in which case every
// store falls back to its in-memory implementation — suitable for dev
// and for the mock broker, not for a live deployment.
func Build(ctx context.Context, cfg *config.Config, db *sql.DB) (*Core, error) {
	auditStore, err := buildAuditStore(db)
	if err != nil {
		return nil, fmt.Errorf("core: build audit store: %w", err)
	}
	auditLogger := audit.NewLogger(auditStore)

	ksStore, err := buildKillSwitchStore(db)
	if err != nil {
		return nil, fmt.Errorf("core: build kill switch store: %w", err)
	}
	ks, err := killswitch.New(ctx, ksStore, auditLogger, cfg.KillSwitchEnabled, cfg.KillSwitchReason)
	if err != nil {
		return nil, fmt.Errorf("core: build kill switch: %w", err)
	}

	brokerAdapter, err := buildBroker(cfg)
	if err != nil {
		return nil, fmt.Errorf("core: build broker adapter: %w", err)
	}
	resilientBroker := broker.NewResilientBroker(brokerAdapter, broker.NewCache(cfg.RedisURL))

	volMon := edgestability.NewMonitor(edgestability.Config{}, 0)
	session := calendar.NewSession(calendar.Window{
		OpenMinute:  9*60 + 30,
		CloseMinute: 16 * 60,
		Location:    time.UTC,
	})

	riskPolicy, err := risk.LoadPolicy(cfg.RiskPolicyPath)
	if err != nil {
		observability.LogEvent(ctx, "warn", "risk_policy_load_failed", map[string]any{"error": err.Error(), "path": cfg.RiskPolicyPath})
		riskPolicy = risk.DefaultPolicy()
	}
	policyStore := risk.NewPolicyStore(riskPolicy)
	riskEvaluator := risk.NewEvaluator(policyStore, volMon, session)

	autoApprovalCfg := autoapproval.DefaultConfig()
	autoApprovalCfg.Enabled = cfg.AutoApproval
	autoApprovalCfg.MaxNotional = cfg.AutoApprovalMaxNotional
	autoApprovalPolicy := autoapproval.NewPolicy(autoApprovalCfg)

	approvalStore := approval.NewStore(approval.DefaultCapacity)
	approvalSvc := approval.NewService(approvalStore, auditLogger, ks, autoApprovalPolicy)

	sub := submitter.New(approvalSvc, resilientBroker, auditLogger, ks)

	cmStore := cancelmodify.NewStore(cancelmodify.DefaultCapacity)
	cancelModifySvc := cancelmodify.New(cmStore, resilientBroker, auditLogger, ks)

	gatewayPolicy := toolgateway.DefaultPolicy()
	rateLimitCfg := toolgateway.RateLimitConfig{
		PerToolPerMinute:    cfg.RateLimitPerTool,
		PerSessionPerMinute: cfg.RateLimitPerSession,
		GlobalPerMinute:     cfg.RateLimitGlobal,
	}
	limiter := toolgateway.NewRateLimiter(rateLimitCfg)
	breakerCfg := toolgateway.DefaultBreakerConfig()
	breakerCfg.Cooldown = cfg.CircuitBreakerCooldown
	gateway := toolgateway.New(gatewayPolicy, limiter, breakerCfg, auditLogger)

	var reportSource scheduler.ReportSource
	if rs, ok := brokerAdapter.(scheduler.ReportSource); ok {
		reportSource = rs
	}
	schedulerCfg := scheduler.DefaultConfig()
	schedulerCfg.ExportDir = cfg.SchedulerExportDir
	sched := scheduler.New(schedulerCfg, reportSource, auditLogger)

	c := &Core{
		Config:          cfg,
		Audit:           auditLogger,
		KillSwitch:      ks,
		Broker:          resilientBroker,
		SimulatorConfig: simulator.DefaultConfig(),
		RiskPolicy:      policyStore,
		RiskEvaluator:   riskEvaluator,
		VolatilityMon:   volMon,
		Session:         session,
		AutoApproval:    autoApprovalPolicy,
		Approval:        approvalSvc,
		Submitter:       sub,
		CancelModify:    cancelModifySvc,
		ToolGateway:     gateway,
		Scheduler:       sched,
	}
	RegisterTools(c)
	return c, nil
}

func buildAuditStore(db *sql.DB) (audit.Store, error) {
	if db == nil {
		return audit.NewMemoryStore(), nil
	}
	return audit.NewPostgresStore(db)
}

func buildKillSwitchStore(db *sql.DB) (killswitch.Store, error) {
	if db == nil {
		return killswitch.NewMemoryStore(), nil
	}
	return killswitch.NewPostgresStore(db), nil
}

func buildBroker(cfg *config.Config) (broker.Broker, error) {
	switch cfg.Env {
	case config.EnvDev:
		return broker.NewMockBroker(1, cfg.ReadOnlyMode), nil
	case config.EnvPaper, config.EnvLive:
		return broker.NewAlpacaBroker(broker.AlpacaConfig{
			ReadOnly: cfg.ReadOnlyMode,
		}), nil
	default:
		return nil, fmt.Errorf("core: unknown environment %q", cfg.Env)
	}
}
