package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/resilience"
)

const answerTemperature = 0.3

type Client struct {
	api        *openai.Client
	genModel   string
	embedModel string
	executor   *resilience.Executor
}

func New(apiKey, genModel, embedModel string, executor *resilience.Executor) *Client {
	if genModel == "" {
		genModel = openai.GPT4oMini
	}
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
	}
	return &Client{
		api:        openai.NewClient(apiKey),
		genModel:   genModel,
		embedModel: embedModel,
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float32
	call := func(ctx context.Context) error {
		resp, err := e.client.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(e.client.embedModel),
		})
		if err != nil {
			return fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
		}
		out = make([][]float32, len(resp.Data))
		for i, item := range resp.Data {
			out[i] = item.Embedding
		}
		return nil
	}

	if err := e.client.execute(ctx, "openai.embed", call); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, evidence []domain.Expense) (string, error) {
	var answer string
	call := func(ctx context.Context) error {
		resp, err := g.client.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.client.genModel,
			Temperature: answerTemperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: auditorSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildAnswerPrompt(question, evidence)},
			},
		})
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion: empty choice list")
		}
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	if err := g.client.execute(ctx, "openai.generate", call); err != nil {
		return "", err
	}
	return answer, nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyOpenAIError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
