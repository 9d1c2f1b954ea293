package nlp

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kuberai/go-gold-backend/internal/llm"
)

// Query categories produced by Classify.
const (
	CategoryGold    = "gold"
	CategoryFinance = "finance_general"
	CategoryOther   = "other"
)

// classifyPrompt is the fixed instruction for the model-backed classifier.
const classifyPrompt = "Classify the user query into one of: 'gold', 'finance_general', 'other'. Reply with one word only."

// goldPatterns match gold-investment vocabulary in English and Hindi.
// English patterns are word-bounded; Devanagari terms are matched as plain
// substrings because RE2 word boundaries only understand ASCII.
var goldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bgold\b`),
	regexp.MustCompile(`\bdigital gold\b`),
	regexp.MustCompile(`\binvest\b`),
	regexp.MustCompile(`\bpurchase gold\b`),
	regexp.MustCompile(`\bbuy gold\b`),
	regexp.MustCompile(`\byellow metal\b`),
	regexp.MustCompile(`\bsona\b`),
	regexp.MustCompile(`\binvestment\b`),
	regexp.MustCompile(`सोना`),
	regexp.MustCompile(`डिजिटल गोल्ड`),
}

// Completer is the slice of the language-model client the nlp package needs.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error)
}

// Classifier decides whether a query is about gold investment. It combines a
// model-backed three-way classification with a keyword heuristic; either
// signal alone is enough to treat the query as gold intent, so a flaky model
// can never suppress a query that plainly names gold.
type Classifier struct {
	completer  Completer
	translator Translator
}

// NewClassifier wires a classifier. Either dependency may be nil; the
// classifier then leans entirely on the remaining signal.
func NewClassifier(completer Completer, translator Translator) *Classifier {
	return &Classifier{completer: completer, translator: translator}
}

// IsGoldQuery reports whether the query matches the gold keyword list. The
// query is first translated to English so that transliterated or third
// language phrasings still hit the English patterns; if translation fails
// the raw query is matched as-is.
func (c *Classifier) IsGoldQuery(ctx context.Context, query string) bool {
	text := query
	if c != nil && c.translator != nil {
		if translated, err := c.translator.ToEnglish(ctx, query); err == nil {
			text = translated
		} else {
			log.Debug().Err(err).Msg("translation unavailable, matching raw query")
		}
	}

	text = strings.ToLower(text)
	for _, re := range goldPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify buckets the query into gold, finance_general, or other. Without a
// configured model, or when the model errors or answers off-vocabulary, it
// falls back to the heuristic and reports gold or other.
func (c *Classifier) Classify(ctx context.Context, query string) string {
	if c == nil || c.completer == nil || !c.completer.Configured() {
		return c.heuristicCategory(ctx, query)
	}

	answer, err := c.completer.Complete(ctx, []llm.Message{
		{Role: "system", Content: classifyPrompt},
		{Role: "user", Content: query},
	}, 0, 0)
	if err != nil {
		log.Warn().Err(err).Msg("classification model unavailable, using keyword heuristic")
		return c.heuristicCategory(ctx, query)
	}

	switch category := strings.ToLower(strings.Trim(answer, " \t\r\n.'\"")); category {
	case CategoryGold, CategoryFinance, CategoryOther:
		return category
	default:
		log.Warn().Str("answer", answer).Msg("unexpected classification answer, using keyword heuristic")
		return c.heuristicCategory(ctx, query)
	}
}

// GoldIntent runs the full decision: the model category plus the keyword
// check, either of which marks the query as gold intent.
func (c *Classifier) GoldIntent(ctx context.Context, query string) (category string, gold bool) {
	category = c.Classify(ctx, query)
	return category, category == CategoryGold || c.IsGoldQuery(ctx, query)
}

func (c *Classifier) heuristicCategory(ctx context.Context, query string) string {
	if c.IsGoldQuery(ctx, query) {
		return CategoryGold
	}
	return CategoryOther
}
