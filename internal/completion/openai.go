package completion

import (
	"context"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"

	"github.com/Iron-Ham/taskwatch/internal/errors"
)

// rationaleInstructions is sent as the system instructions for every
// OpenAI request.
const rationaleInstructions = "You explain task assignment decisions to a team lead in two or three plain sentences."

// OpenAIClient implements Client using the OpenAI Responses API.
type OpenAIClient struct {
	c     *openai.Client
	model string
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	model   string
	request []option.RequestOption
}

// WithOpenAIModel sets the model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *openAIOptions) {
		o.model = model
	}
}

// WithOpenAIRequestOptions appends SDK request options, such as a base URL.
func WithOpenAIRequestOptions(opts ...option.RequestOption) OpenAIOption {
	return func(o *openAIOptions) {
		o.request = append(o.request, opts...)
	}
}

// NewOpenAIClient creates a client using the OPENAI_API_KEY env var.
// Returns an error if the API key is not set.
func NewOpenAIClient(opts ...OpenAIOption) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.NewValidationError("OPENAI_API_KEY environment variable not set").
			WithField("completion.backend").
			WithValue(BackendOpenAI)
	}

	o := openAIOptions{model: openai.ChatModelGPT4_1Mini}
	for _, opt := range opts {
		opt(&o)
	}

	// Retries are driven by the caller's backoff policy.
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, o.request...)

	client := openai.NewClient(reqOpts...)
	return &OpenAIClient{c: &client, model: o.model}, nil
}

// Model returns the configured model name.
func (o *OpenAIClient) Model() string {
	return o.model
}

// Complete sends prompt as the request input and returns the text of the
// first message in the response output.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model:        o.model,
		Instructions: param.NewOpt(rationaleInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	}

	res, err := o.c.Responses.New(ctx, params)
	if err != nil {
		return "", classifyOpenAI(ctx, err)
	}

	var answer string
	for _, out := range res.Output {
		if out.Type != "message" {
			continue
		}
		for _, part := range out.AsMessage().Content {
			answer += part.Text
		}
		break
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errors.NewCompletionError("empty response from API", nil).WithBackend(BackendOpenAI)
	}
	return answer, nil
}

func classifyOpenAI(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return errors.NewCompletionError("API error", err).
			WithBackend(BackendOpenAI).
			WithStatusCode(apiErr.StatusCode)
	}
	ce := errors.NewCompletionError("send request", err).WithBackend(BackendOpenAI)
	if ctx.Err() == nil {
		ce = ce.WithRetryable(true)
	}
	return ce
}
