package cli

import (
	"fmt"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/agent"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/channels"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/i18n"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/journal"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/policy"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/provider"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/ratelimit"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/session"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/tools"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/trace"
)

const systemPrompt = "You are GolemBot, a helpful assistant. Use the available tools when they help " +
	"you answer. Prefix your final answer with \U0001F50A if the user should hear it spoken aloud."

// runtime holds the fully wired agent stack.
type runtime struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	orch     *agent.Orchestrator
	registry *channels.Registry
	journal  *journal.Service
	tracer   *trace.KafkaPublisher
}

// buildRuntime wires provider, tools, policy, journal, tracing, and the
// pipeline into an orchestrator.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	msgBus := bus.NewMessageBus()
	prov := provider.NewOpenAIProvider(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Model.Name)

	toolReg := tools.NewRegistry()
	toolReg.Register(tools.NewReadFileTool(cfg.Paths.Workspace))
	toolReg.Register(tools.NewListDirTool(cfg.Paths.Workspace))
	toolReg.Register(tools.NewCurrentTimeTool())
	toolReg.Register(tools.NewSwitchSkillTool())

	executor := tools.NewExecutor(toolReg, policy.NewDefaultEngine(), cfg.Turn.ToolCallTimeout)

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerMinute)
	}

	var jrnl *journal.Service
	if cfg.Journal.Path != "" {
		var err error
		jrnl, err = journal.NewService(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	var tracer *trace.KafkaPublisher
	if cfg.Trace.Enabled {
		tracer = trace.NewKafkaPublisher(cfg.Trace.Brokers, cfg.Trace.Topic)
	}

	recorder := &agent.Recorder{Journal: jrnl}
	if tracer != nil {
		recorder.Tracer = tracer
	}

	catalog := i18n.NewCatalog(cfg.Locale)
	registry := channels.NewRegistry()

	pipeline := agent.NewPipeline(
		agent.NewSkillRoutingStage(cfg.Model),
		agent.NewToolLoopStage(prov, executor, toolReg, cfg.Turn, cfg.Model, recorder),
		agent.NewResponsePreparationStage(cfg.Turn, catalog),
		agent.NewResponseRoutingStage(msgBus),
	)

	orch := agent.NewOrchestrator(agent.Deps{
		Config:       cfg,
		Bus:          msgBus,
		Sessions:     session.NewManager(cfg.Paths.SessionsDir),
		Pipeline:     pipeline,
		Limiter:      limiter,
		Journal:      jrnl,
		Recorder:     recorder,
		Channels:     registry,
		Catalog:      catalog,
		Provider:     prov,
		SystemPrompt: systemPrompt,
	})

	return &runtime{
		cfg:      cfg,
		bus:      msgBus,
		orch:     orch,
		registry: registry,
		journal:  jrnl,
		tracer:   tracer,
	}, nil
}

// close releases runtime resources.
func (r *runtime) close() {
	if r.journal != nil {
		r.journal.Close()
	}
	if r.tracer != nil {
		r.tracer.Close()
	}
}
