package bootstrap

import (
	"context"
	"fmt"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/config"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/ports"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/usecase"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/export/xlsx"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/graph/neo4j"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/llm/openai"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/queue/nats"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/repository/postgres"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/resilience"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/source/camara"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Auditor  ports.ExpenseAuditor
	Ingestor ports.ExpenseIngestor
	Exporter ports.EvidenceExporter

	closeFn func(context.Context)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	expenseRepo := postgres.NewExpenseRepository(db)
	if err := expenseRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}

	graphStore, err := neo4j.NewPatternStore(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, fmt.Errorf("init neo4j: %w", err)
	}
	if err := graphStore.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure neo4j indexes: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llmClient := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIGenModel, cfg.OpenAIEmbedModel, executor)
	embedder := openai.NewEmbedder(llmClient)
	generator := openai.NewGenerator(llmClient)

	source := camara.New(
		camara.WithBaseURL(cfg.CamaraBaseURL),
		camara.WithRequestsPerSecond(float64(cfg.CamaraRPS)),
	)

	retrieveUC := usecase.NewRetrieveUseCase(expenseRepo, graphStore)
	auditUC := usecase.NewAuditUseCase(embedder, retrieveUC, generator)
	ingestUC := usecase.NewIngestUseCase(source, expenseRepo, graphStore, embedder, cfg.DeputyLimit)

	return &App{
		Config: cfg,
		Queue:  queue,
		Auditor: &planDefaultsAuditor{
			inner:          auditUC,
			candidateLimit: cfg.CandidateLimit,
			evidenceLimit:  cfg.EvidenceLimit,
			rrfK:           cfg.RRFK,
		},
		Ingestor: ingestUC,
		Exporter: xlsx.New(),

		closeFn: func(ctx context.Context) {
			queue.Close()
			_ = graphStore.Close(ctx)
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}

// planDefaultsAuditor fills the configured limits into plans that leave them
// unset, so API callers only pay attention to strategy selection.
type planDefaultsAuditor struct {
	inner          ports.ExpenseAuditor
	candidateLimit int
	evidenceLimit  int
	rrfK           int
}

func (a *planDefaultsAuditor) Audit(ctx context.Context, question string, plan domain.SearchPlan) (*domain.Answer, error) {
	return a.inner.Audit(ctx, question, a.applyDefaults(plan))
}

func (a *planDefaultsAuditor) Retrieve(ctx context.Context, question string, plan domain.SearchPlan) (domain.EvidenceSet, error) {
	return a.inner.Retrieve(ctx, question, a.applyDefaults(plan))
}

func (a *planDefaultsAuditor) applyDefaults(plan domain.SearchPlan) domain.SearchPlan {
	if plan.CandidateLimit <= 0 {
		plan.CandidateLimit = a.candidateLimit
	}
	if plan.EvidenceLimit <= 0 {
		plan.EvidenceLimit = a.evidenceLimit
	}
	if plan.RRFK <= 0 {
		plan.RRFK = a.rrfK
	}
	return plan
}
