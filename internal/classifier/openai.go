package classifier

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

const systemPrompt = `
You are a radiology assistant. Classify the uploaded chest CT slice.
Answer with a single JSON object mapping every class label to a probability between 0 and 1.
Do not add any other text.`

const userPromptTemplate = "Class labels: %s"

// OpenAI classifies images with an OpenAI-compatible vision model.
type OpenAI struct {
	client    openai.Client
	modelName string
	meta      Metadata
}

func NewOpenAI(client openai.Client, modelName string, meta Metadata) *OpenAI {
	return &OpenAI{
		client:    client,
		modelName: modelName,
		meta:      meta,
	}
}

func (o *OpenAI) Labels() []string {
	return o.meta.Classes
}

func (o *OpenAI) Classify(ctx context.Context, data []byte, format string) ([]float64, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.buildRequest(data, format))
	if err != nil {
		return nil, fmt.Errorf("OpenAI client error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}
	return ParseScores(resp.Choices[0].Message.Content, o.meta)
}

func (o *OpenAI) buildRequest(data []byte, format string) openai.ChatCompletionNewParams {
	if format == "jpg" {
		format = "jpeg"
	}
	imageData := fmt.Sprintf("data:image/%s;base64,%s", format, base64.StdEncoding.EncodeToString(data))

	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(fmt.Sprintf(userPromptTemplate, strings.Join(o.meta.Classes, ", "))),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageData,
				}),
			}),
		},
		Temperature: openai.Float(0),
	}
}

// ParseScores extracts the JSON object from a model answer and orders its
// values by meta.Classes. Keys may be raw labels or display names, in any
// case. Unknown keys are ignored and missing classes score zero.
func ParseScores(content string, meta Metadata) ([]float64, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model answer: %q", content)
	}

	var answer map[string]float64
	if err := sonic.UnmarshalString(content[start:end+1], &answer); err != nil {
		return nil, fmt.Errorf("failed to decode model answer: %w", err)
	}

	byKey := make(map[string]float64, len(answer))
	for k, v := range answer {
		byKey[strings.ToLower(strings.TrimSpace(k))] = v
	}

	weights := make([]float64, len(meta.Classes))
	for i, label := range meta.Classes {
		if v, ok := byKey[strings.ToLower(label)]; ok {
			weights[i] = v
			continue
		}
		if v, ok := byKey[strings.ToLower(meta.DisplayName(label))]; ok {
			weights[i] = v
		}
	}
	return Rescale(weights)
}
