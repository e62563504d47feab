package generatorimpl

import (
	"context"
	"fmt"
	"strings"

	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/generator"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/fx"
)

const (
	seriesMaxTokens = 4000
	singleMaxTokens = 2000
	temperature     = 0.7
)

type Impl struct {
	model  llms.Model
	config *config.Config
	logger logger.Logger
}

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) (*Impl, error) {
	clientOpts := []openai.Option{
		openai.WithModel(opts.Config.LLM.Model),
		openai.WithToken(opts.Config.LLM.ApiKey),
	}
	if opts.Config.LLM.BaseUrl != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.Config.LLM.BaseUrl))
	}

	model, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	return &Impl{
		model:  model,
		config: opts.Config,
		logger: opts.Logger.WithComponent("Generator"),
	}, nil
}

var _ generator.Client = (*Impl)(nil)

// GenerateSeries produces the whole batch in one model call
func (g *Impl) GenerateSeries(ctx context.Context, opts generator.Options) ([]domain.GeneratedPost, error) {
	mode := "standalone"
	if opts.Linked {
		mode = "linked"
	}

	systemPrompt := "You are a social media content writer. Generate posts as JSON. " +
		"For each post return exactly: \"content\" (the post text), \"script\" (only for TikTok, the video script), " +
		"\"hashtags\" (JSON array of hashtag strings). Be concise and match the requested tone and length."
	userPrompt := fmt.Sprintf(
		"Generate %d %s posts for platform: %s. Topic: %s. Tone: %s. Length: %s.%s "+
			"Return a JSON array of objects, each with \"content\", \"script\" (optional), \"hashtags\" (array of strings). "+
			"No markdown, only the raw JSON array.",
		opts.NumPosts, mode, opts.Platform, opts.TopicDetail,
		toneOrDefault(opts.Tone), lengthOrDefault(opts.Length), platformNote(opts))

	raw, err := g.complete(ctx, systemPrompt, userPrompt, seriesMaxTokens)
	if err != nil {
		return nil, err
	}

	return parseGeneratedList(raw), nil
}

// GenerateNext produces item index of the series, carrying prior contents for
// continuity in linked mode
func (g *Impl) GenerateNext(ctx context.Context, opts generator.Options, index int, previous []string) (*domain.GeneratedPost, error) {
	linkedContext := ""
	if opts.Linked && len(previous) > 0 {
		linkedContext = fmt.Sprintf(
			" Previous posts in this series (for continuity): %s. Write the next post that follows naturally.",
			strings.Join(previous, " | "))
	}

	systemPrompt := "You are a social media content writer. Generate a single post as JSON. " +
		"Return exactly one object with: \"content\" (the post text), \"script\" (only for TikTok, the video script), " +
		"\"hashtags\" (JSON array of hashtag strings). Be concise and match the requested tone and length. " +
		"No markdown, only the raw JSON object."
	userPrompt := fmt.Sprintf(
		"Generate post %d of %d for platform: %s. Topic: %s. Tone: %s. Length: %s.%s%s "+
			"Return a single JSON object with \"content\", \"script\" (optional), \"hashtags\" (array of strings).",
		index, opts.NumPosts, opts.Platform, opts.TopicDetail,
		toneOrDefault(opts.Tone), lengthOrDefault(opts.Length), platformNote(opts), linkedContext)

	raw, err := g.complete(ctx, systemPrompt, userPrompt, singleMaxTokens)
	if err != nil {
		return nil, err
	}

	item := parseGeneratedItem(raw)
	return &item, nil
}

func (g *Impl) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}

	g.logger.Debug("Requesting post generation from model", "model", g.config.LLM.Model)

	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return resp.Choices[0].Content, nil
}

func platformNote(opts generator.Options) string {
	if strings.EqualFold(opts.Platform, "tiktok") && opts.TikTokScriptDurationSeconds > 0 {
		return fmt.Sprintf(
			" Each post must include a script suitable for a %d second video (approx %d words).",
			opts.TikTokScriptDurationSeconds, opts.TikTokScriptDurationSeconds*2)
	}
	return ""
}

func toneOrDefault(tone string) string {
	if tone == "" {
		return "professional"
	}
	return tone
}

func lengthOrDefault(length string) string {
	if length == "" {
		return "medium"
	}
	return length
}
