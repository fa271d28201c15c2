// Package vision turns photographs of a record (sleeve, labels, deadwax)
// into an OcrExtraction via the Anthropic vision API. Everything downstream
// of the extraction is pure; this package owns the one model call.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

const defaultModel = "claude-haiku-4-5-20251001"

const extractionPrompt = `You are reading photographs of a vinyl record: sleeve front/back, center labels, and deadwax (runout groove) closeups.

Extract every attribute you can read and reply with ONLY a JSON object using these keys (omit keys you cannot read):
artist, title, catalogue_number, label, barcode, matrix_runout_a, matrix_runout_b, label_code, rights_society, pressing_plant, country, year, format, pressing_info, identifier_strings (array of any other etched or printed codes).

Transcribe codes exactly as printed, including spacing. Do not guess values you cannot see.`

// Photo is one image handed to the analyzer.
type Photo struct {
	Data     []byte
	MimeType string // "image/jpeg" or "image/png"
}

// Usage reports token consumption for one extraction call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Result pairs the extraction with its usage accounting.
type Result struct {
	Extraction model.OcrExtraction
	Usage      Usage
}

// Analyzer extracts release attributes from photographs.
type Analyzer interface {
	Extract(ctx context.Context, photos []Photo) (*Result, error)
}

type sdkAnalyzer struct {
	client sdk.Client
	model  string
}

// NewAnalyzer creates an Analyzer backed by the Anthropic SDK.
func NewAnalyzer(apiKey, modelID string) Analyzer {
	if modelID == "" {
		modelID = defaultModel
	}
	return &sdkAnalyzer{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  modelID,
	}
}

func (a *sdkAnalyzer) Extract(ctx context.Context, photos []Photo) (*Result, error) {
	if len(photos) == 0 {
		return nil, eris.New("vision: no photos supplied")
	}

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(photos)+1)
	for _, p := range photos {
		mime := p.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		blocks = append(blocks, sdk.NewImageBlockBase64(mime, base64.StdEncoding.EncodeToString(p.Data)))
	}
	blocks = append(blocks, sdk.NewTextBlock(extractionPrompt))

	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: 1024,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	extraction, err := ParseExtraction(text.String())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Extraction: *extraction,
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	zap.L().Info("vision: extraction complete",
		zap.Int("photos", len(photos)),
		zap.String("artist", extraction.Artist),
		zap.String("title", extraction.Title),
		zap.Int64("input_tokens", result.Usage.InputTokens),
		zap.Int64("output_tokens", result.Usage.OutputTokens),
	)
	return result, nil
}

// ParseExtraction decodes the model's reply into an OcrExtraction. The reply
// is expected to be a bare JSON object but markdown fences are tolerated.
func ParseExtraction(text string) (*model.OcrExtraction, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	// Tolerate prose around the object by slicing to the outermost braces.
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var extraction model.OcrExtraction
	if err := json.Unmarshal([]byte(trimmed), &extraction); err != nil {
		return nil, eris.Wrap(err, "vision: parse extraction")
	}
	return &extraction, nil
}
