package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/advisor"
	"github.com/Rob9999/ethos-ai-clim/internal/api"
	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/config"
	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	dockerpkg "github.com/Rob9999/ethos-ai-clim/internal/docker"
	"github.com/Rob9999/ethos-ai-clim/internal/ethics"
	"github.com/Rob9999/ethos-ai-clim/internal/i18n"
	"github.com/Rob9999/ethos-ai-clim/internal/individual"
	"github.com/Rob9999/ethos-ai-clim/internal/printer"
	"github.com/Rob9999/ethos-ai-clim/internal/process"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/simulation"
	"github.com/Rob9999/ethos-ai-clim/internal/tool"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// core is what every command that talks to the layer stack needs.
type core struct {
	cfg    *config.EthosConfig
	logger *zap.Logger
	tr     *i18n.Translator
	stack  *clim.Stack
	grid   *simulation.Grid
	redis  *blackboard.Client // nil without a redis section
}

func buildCore(ctx context.Context, cfg *config.EthosConfig, logger *zap.Logger) (*core, error) {
	tr, err := i18n.New(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load locale: %w", err)
	}
	vocab, err := decision.NewVocabulary(tr)
	if err != nil {
		return nil, fmt.Errorf("failed to build decision vocabulary: %w", err)
	}

	c := &core{cfg: cfg, logger: logger, tr: tr}

	opts := clim.BuildOptions{
		Identity:  cfg.Identity.Name,
		ModelsDir: cfg.ModelsDir,
		Vocab:     vocab,
		Logger:    logger,
	}
	if cfg.Redis != nil {
		c.redis, err = blackboard.NewClientFromURL(cfg.Redis.URL, cfg.Identity.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		if err := c.redis.Ping(ctx); err != nil {
			c.redis.Close()
			return nil, fmt.Errorf("redis not reachable at %s: %w", cfg.Redis.URL, err)
		}
		opts.Recorder = c.redis
	}

	c.stack, err = clim.Build(ctx, opts)
	if err != nil {
		c.close()
		return nil, fmt.Errorf("failed to build layer stack: %w", err)
	}

	c.grid = simulation.NewGrid(c.stack, ethics.NewModule(ethics.Domains(), tr), logger.Named("simulation"))
	if cfg.Process.Concurrency > 0 {
		c.grid.Concurrency = cfg.Process.Concurrency
	}
	return c, nil
}

func (c *core) close() {
	if c.redis != nil {
		c.redis.Close()
	}
}

// agent is a fully wired individual.
type agent struct {
	*core
	ledger     *audit.Ledger
	process    *process.Model
	individual *individual.Individual
	api        *api.Server
}

func buildAgent(ctx context.Context, c *core) (*agent, error) {
	cfg := c.cfg
	a := &agent{core: c}

	level, _ := security.ParseLevel(cfg.Identity.SecurityLevel) // checked by Validate
	card, err := security.NewIdentityCard(security.CardOptions{
		Name:        cfg.Identity.Name,
		Password:    cfg.Identity.Password,
		Level:       level,
		Responsible: cfg.Identity.Responsible,
		KeyDir:      cfg.Identity.KeyDir,
	})
	if err != nil {
		return nil, fmt.Errorf("identity card: %w", err)
	}

	tools, err := tool.LoadManager(cfg.ToolsDir, c.logger.Named("tools"))
	if err != nil {
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}

	runner, err := newRunner(ctx, cfg, c.logger)
	if err != nil {
		return nil, err
	}

	a.ledger, err = audit.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	j := &journal{ledger: a.ledger, events: c.redis, logger: c.logger}

	deps := advisor.Deps{
		Generator:  c.stack,
		Translator: c.tr,
		Tools:      tools,
		Runner:     runner,
		Journal:    j,
		Logger:     c.logger.Named("executor"),
		Language:   cfg.Execution.Language,
	}
	var adv *advisor.Advisor
	if cfg.Advisor != nil {
		advLevel, _ := security.ParseLevel(cfg.Advisor.SecurityLevel)
		advCard, err := security.NewIdentityCard(security.CardOptions{
			Name:        cfg.Advisor.Name,
			Password:    cfg.Advisor.Password,
			Level:       advLevel,
			Responsible: cfg.Identity.Name,
			KeyDir:      cfg.Identity.KeyDir,
		})
		if err != nil {
			a.ledger.Close()
			return nil, fmt.Errorf("advisor card: %w", err)
		}
		adv = advisor.New(advCard, cfg.Advisor.Password, deps)
	}

	a.process = process.New(process.Deps{
		Stack:      c.stack,
		Grid:       c.grid,
		Questions:  ethics.NewQuestions(ethics.Domains(), c.tr, cfg.QuestionsPath, c.logger.Named("questions")),
		Executor:   advisor.NewExecutor(card, cfg.Identity.Password, adv, deps),
		Translator: c.tr,
		Logger:     c.logger,
	}, process.Config{
		TestCasesDir:   cfg.TestCasesDir,
		PollInterval:   cfg.Process.PollInterval,
		CycleInterval:  cfg.Process.CycleInterval,
		MaxAspirations: cfg.Process.MaxAspirations,
	})

	indDeps := individual.Deps{
		Process: a.process,
		Trainer: c.stack,
		Journal: j,
		Logger:  c.logger,
	}
	if c.redis != nil {
		indDeps.Mirror = c.redis
	}
	a.individual = individual.New(individual.Config{
		Name:              cfg.Identity.Name,
		TaskCheckInterval: cfg.Scheduler.TaskCheckInterval,
		Advised:           cfg.Scheduler.Advised,
		DreamChance:       *cfg.Scheduler.DreamChance,
		TestCasesDir:      cfg.TestCasesDir,
	}, indDeps)

	if cfg.APIEnabled() {
		var pinger api.Pinger
		if c.redis != nil {
			pinger = c.redis
		}
		a.api = api.New(a.individual, a.process, pinger, c.logger)
	}
	return a, nil
}

func newRunner(ctx context.Context, cfg *config.EthosConfig, logger *zap.Logger) (tool.Runner, error) {
	if cfg.Execution.Runner != "docker" {
		return tool.NewLogRunner(logger.Named("runner")), nil
	}
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return nil, printer.Error(
			"Docker not available",
			err.Error(),
			"Start the Docker daemon",
			"Set execution.runner to \"log\" in ethos.yml",
		)
	}
	return tool.NewDockerRunner(cli, cfg.Identity.Name, nil, logger.Named("runner")), nil
}

func (a *agent) close() {
	if a.ledger != nil {
		a.ledger.Close()
	}
	a.core.close()
}

// journal writes to the audit ledger and announces the entry on Redis.
type journal struct {
	ledger *audit.Ledger
	events *blackboard.Client
	logger *zap.Logger
}

func (j *journal) Record(ctx context.Context, kind, subject, actor, detail string) error {
	if err := j.ledger.Append(ctx, kind, subject, actor, detail); err != nil {
		return err
	}
	if j.events == nil {
		return nil
	}

	ev := &blackboard.Event{Type: blackboard.EventTopic, Subject: subject, Status: kind, Detail: detail}
	if kind == audit.KindTaskDone || kind == audit.KindTaskFailed {
		ev.Type = blackboard.EventTask
	}
	if err := j.events.PublishEvent(ctx, ev); err != nil {
		j.logger.Debug("Failed to publish ledger event", zap.String("kind", kind), zap.Error(err))
	}
	return nil
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return printer.Error("failed to start", err.Error())
	}
	a, err := buildAgent(ctx, c)
	if err != nil {
		c.close()
		return printer.Error("failed to start", err.Error())
	}
	defer a.close()

	if a.api != nil {
		if err := a.api.Start(cfg.API.Addr); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.api.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("API shutdown failed", zap.Error(err))
			}
		}()
	}

	_, msg := a.individual.Start(ctx)
	printer.Success("%s %s", cfg.Identity.Name, msg)
	if a.api != nil {
		printer.Info("  API: http://%s", cfg.API.Addr)
	}

	<-ctx.Done()
	printer.Step("Stopping %s...", cfg.Identity.Name)
	_, msg = a.individual.Stop()
	if err := a.stack.PersistModel(); err != nil {
		logger.Warn("Failed to persist models", zap.Error(err))
	}
	printer.Success("%s", msg)
	return nil
}
