package llm

import (
	"context"
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is used when no model is configured.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreLLM over Google's Gemini API.
type googleProvider struct {
	BaseProvider
	client          *genai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          client,
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}, nil
}

// DoRequest sends a generate-content request and returns the response text.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	genConfig := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		t := float32(*options.Temperature)
		genConfig.Temperature = &t
	}
	if options.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(options.System, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, contents, genConfig)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := p.tokenCounter.EstimateTokens(prompt)
	tokensOut := p.tokenCounter.EstimateTokens(content)
	if resp.UsageMetadata != nil {
		tokensIn = p.tokenCounter.GetTokenCount(int(resp.UsageMetadata.PromptTokenCount), prompt)
		tokensOut = p.tokenCounter.GetTokenCount(int(resp.UsageMetadata.CandidatesTokenCount), content)
	}

	return content, tokensIn, tokensOut, nil
}

func (p *googleProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, apiErr.Message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}
