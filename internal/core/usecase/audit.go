package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/ports"
)

// Shown instead of a generated narrative when every activated strategy came
// back empty or failed. Kept in Portuguese: the corpus and its users are
// Brazilian.
const noEvidenceMessage = "Desculpe, não encontrei despesas parlamentares relevantes para sua pergunta. " +
	"Tente reformular sua pergunta ou verificar se os dados estão disponíveis no sistema."

// AuditUseCase answers citizen questions: embed the question, run hybrid
// retrieval, hand the assembled evidence to the narrative generator.
type AuditUseCase struct {
	embedder  ports.Embedder
	retriever *RetrieveUseCase
	generator ports.AnswerGenerator
}

func NewAuditUseCase(
	embedder ports.Embedder,
	retriever *RetrieveUseCase,
	generator ports.AnswerGenerator,
) *AuditUseCase {
	return &AuditUseCase{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
	}
}

func (uc *AuditUseCase) Audit(ctx context.Context, question string, plan domain.SearchPlan) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapErrorf(domain.ErrInvalidInput, "question is required")
	}

	evidence, err := uc.Retrieve(ctx, question, plan)
	if err != nil {
		return nil, err
	}

	if evidence.Empty() {
		return &domain.Answer{
			Text:       noEvidenceMessage,
			Evidence:   []domain.Expense{},
			Strategies: evidence.Strategies,
		}, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, evidence.Items)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:       text,
		Evidence:   evidence.Items,
		Strategies: evidence.Strategies,
	}, nil
}

// Retrieve runs the retrieval engine without the generation step. When no
// strategy is selected the plan defaults to semantic search over the
// question.
func (uc *AuditUseCase) Retrieve(ctx context.Context, question string, plan domain.SearchPlan) (domain.EvidenceSet, error) {
	if !plan.Active() {
		plan.Semantic = true
	}

	var queryEmbedding []float32
	if plan.Semantic {
		vec, err := uc.embedder.EmbedQuery(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return domain.EvidenceSet{}, ctx.Err()
			}
			// Degrade: the semantic matcher reports the missing embedding,
			// the remaining strategies still run.
			slog.Warn("query embedding failed", "error", err)
		} else {
			queryEmbedding = vec
		}
	}

	return uc.retriever.Retrieve(ctx, queryEmbedding, plan)
}
