package scheme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/rcliao/welfare-desk/internal/model"
)

const (
	DefaultFlashModel = "gemini-3-flash-preview"
	DefaultProModel   = "gemini-3-pro-preview"
	DefaultTimeout    = 30 * time.Second

	suggestThinkingBudget = 1000
)

var errEmptyResponse = errors.New("empty response from model")

// Config configures the Gemini-backed service.
type Config struct {
	APIKey     string
	FlashModel string
	ProModel   string
	// Timeout bounds every call. Zero means DefaultTimeout.
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.FlashModel == "" {
		c.FlashModel = DefaultFlashModel
	}
	if c.ProModel == "" {
		c.ProModel = DefaultProModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// generator is the slice of genai.Models the service uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Service on the Gemini API.
type Gemini struct {
	models  generator
	cfg     Config
	cache   Cache
	metrics *Metrics
	logger  *zap.Logger
}

// Option customises a Gemini service.
type Option func(*Gemini)

// WithCache serves Search and NearbyCenters from c when possible.
func WithCache(c Cache) Option {
	return func(g *Gemini) { g.cache = c }
}

// WithMetrics records call counts and latency.
func WithMetrics(m *Metrics) Option {
	return func(g *Gemini) { g.metrics = m }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gemini) { g.logger = l }
}

// NewGemini creates a service backed by the Gemini API.
func NewGemini(ctx context.Context, cfg Config, opts ...Option) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, cfg, opts...), nil
}

func newGemini(models generator, cfg Config, opts ...Option) *Gemini {
	cfg.applyDefaults()
	g := &Gemini{models: models, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// fail logs and counts a failure and wraps it as a ServiceError.
func (g *Gemini) fail(op string, err error) error {
	g.metrics.IncrementFailure(op)
	g.logger.Error("scheme service call failed", zap.String("op", op), zap.Error(err))
	return &ServiceError{Op: op, Err: err}
}

// generate runs one model call under the configured timeout.
func (g *Gemini) generate(ctx context.Context, op, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, modelName, contents, config)
	g.metrics.ObserveCall(op, start)
	if err != nil {
		return nil, g.fail(op, err)
	}
	if resp == nil {
		return nil, g.fail(op, errEmptyResponse)
	}
	g.logger.Debug("scheme service call complete",
		zap.String("op", op), zap.String("model", modelName), zap.Duration("took", time.Since(start)))
	return resp, nil
}

// structuredText runs a JSON-mode call and returns the answer with any code
// fence removed. An empty answer is returned as "".
func (g *Gemini) structuredText(ctx context.Context, op, modelName string, contents []*genai.Content, schema *genai.Schema) (string, error) {
	resp, err := g.generate(ctx, op, modelName, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", err
	}
	return stripFences(resp.Text()), nil
}

func (g *Gemini) decodeAnswer(op, text string, out any) error {
	if text == "" {
		return g.fail(op, errEmptyResponse)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return g.fail(op, fmt.Errorf("decode answer: %w", err))
	}
	return nil
}

// generateJSON runs a structured call and decodes the answer into out.
func (g *Gemini) generateJSON(ctx context.Context, op, modelName string, contents []*genai.Content, schema *genai.Schema, out any) error {
	text, err := g.structuredText(ctx, op, modelName, contents, schema)
	if err != nil {
		return err
	}
	return g.decodeAnswer(op, text, out)
}

// grounded runs a Google Search grounded call, consulting the cache first.
func (g *Gemini) grounded(ctx context.Context, op string, lang Language, cacheInput, prompt string) (*SearchResult, error) {
	key := CacheKey(op, lang, cacheInput)
	if g.cache != nil {
		if r, ok, err := g.cache.Get(ctx, key); err != nil {
			g.logger.Warn("cache read failed", zap.String("op", op), zap.Error(err))
		} else if ok {
			g.metrics.IncrementCacheHit(op)
			return r, nil
		}
	}

	resp, err := g.generate(ctx, op, g.cfg.FlashModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Text: resp.Text(), Sources: groundingSources(resp)}
	if g.cache != nil && result.Text != "" {
		if err := g.cache.Set(ctx, key, result); err != nil {
			g.logger.Warn("cache write failed", zap.String("op", op), zap.Error(err))
		}
	}
	return result, nil
}

func (g *Gemini) Search(ctx context.Context, query string, lang Language) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{Sources: []Source{}}, nil
	}
	return g.grounded(ctx, "search", lang, query, searchPrompt(query, lang))
}

func (g *Gemini) NearbyCenters(ctx context.Context, lat, lng float64, lang Language) (*SearchResult, error) {
	return g.grounded(ctx, "centers", lang, fmt.Sprintf("%.4f,%.4f", lat, lng), centersPrompt(lat, lng, lang))
}

func (g *Gemini) EvaluateEligibility(ctx context.Context, p *model.Profile, schemeName string, lang Language) (*Eligibility, error) {
	if p == nil {
		p = &model.Profile{}
	}
	var out Eligibility
	if err := g.generateJSON(ctx, "eligibility", g.cfg.ProModel,
		genai.Text(eligibilityPrompt(p, schemeName, lang)), eligibilitySchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gemini) ClassifyGrievance(ctx context.Context, description string, lang Language) (*Grievance, error) {
	var out Grievance
	if err := g.generateJSON(ctx, "grievance", g.cfg.FlashModel,
		genai.Text(grievancePrompt(description, lang)), grievanceSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gemini) Geocode(ctx context.Context, lat, lng float64, lang Language) (*Location, error) {
	var out Location
	if err := g.generateJSON(ctx, "geocode", g.cfg.FlashModel,
		genai.Text(geocodePrompt(lat, lng, lang)), locationSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyDocumentImage asks the model to judge a document photo. An empty
// answer is reported as an invalid document rather than an error.
func (g *Gemini) VerifyDocumentImage(ctx context.Context, image []byte, mimeType, docType string, lang Language) (*DocumentCheck, error) {
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(documentPrompt(docType, lang)),
		}, genai.RoleUser),
	}

	const op = "verify-document"
	text, err := g.structuredText(ctx, op, g.cfg.FlashModel, contents, documentSchema)
	if err != nil {
		return nil, err
	}
	if text == "" {
		g.logger.Warn("document check returned no answer", zap.String("op", op))
		return &DocumentCheck{IsValid: false, Feedback: "Error analyzing"}, nil
	}

	var out DocumentCheck
	if err := g.decodeAnswer(op, text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gemini) Suggest(ctx context.Context, situation string, lang Language) (string, error) {
	budget := int32(suggestThinkingBudget)
	resp, err := g.generate(ctx, "suggest", g.cfg.ProModel, genai.Text(suggestPrompt(situation, lang)),
		&genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: &budget},
		})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func groundingSources(resp *genai.GenerateContentResponse) []Source {
	sources := []Source{}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return sources
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, Source{Title: chunk.Web.Title, URL: chunk.Web.URI})
	}
	return sources
}

// stripFences removes a ```json fence some models wrap around JSON answers.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var _ Service = (*Gemini)(nil)
