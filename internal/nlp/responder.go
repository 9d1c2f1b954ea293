package nlp

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/kuberai/go-gold-backend/internal/llm"
)

// Fixed replies used when no model is configured, keyed by detected language.
const (
	goldFallbackHindi    = "आप सोने में निवेश पर विचार कर रहे हैं। डिजिटल गोल्ड एक आसान और सुरक्षित विकल्प है।"
	goldFallbackEnglish  = "You are considering gold investment. Digital gold is an easy and safe option."
	otherFallbackHindi   = "मैं आपकी मदद के लिए यहाँ हूँ।"
	otherFallbackEnglish = "I am here to help."

	// apologyReply is returned when the model is configured but the call fails.
	apologyReply = "I'm here to help with your financial questions. Could you please rephrase your question?"
)

const (
	responderTemperature = 0.7
	responderMaxTokens   = 200
	// historyWindow is how many prior turns accompany each completion.
	historyWindow = 3
)

// Responder produces the assistant's free-form replies. With no configured
// model it answers from a small set of fixed localized strings, so the
// service stays usable without an API key.
type Responder struct {
	completer Completer
}

// NewResponder wires a responder around an optional completion backend.
func NewResponder(completer Completer) *Responder {
	return &Responder{completer: completer}
}

// Respond generates a reply to query given its category and the recent
// conversation turns. Replies follow the query's detected language; model
// failures degrade to a fixed apologetic reply in English.
func (r *Responder) Respond(ctx context.Context, query, category string, history []llm.Message) string {
	lang := DetectLanguage(query)
	hindi := lang == language.Hindi

	if r == nil || r.completer == nil || !r.completer.Configured() {
		if category == CategoryGold {
			if hindi {
				return goldFallbackHindi
			}
			return goldFallbackEnglish
		}
		if hindi {
			return otherFallbackHindi
		}
		return otherFallbackEnglish
	}

	prompt := systemPrompt(category, strings.ToUpper(lang.String()))

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: prompt})
	if n := len(history); n > historyWindow {
		history = history[n-historyWindow:]
	}
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: query})

	answer, err := r.completer.Complete(ctx, messages, responderTemperature, responderMaxTokens)
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("completion failed, using apologetic reply")
		return apologyReply
	}
	return answer
}

func systemPrompt(category, lang string) string {
	var b strings.Builder
	b.WriteString("You are Kuber AI, a friendly financial assistant for digital gold investments.\n")
	b.WriteString("IMPORTANT: Always respond in " + lang + " language only.\n")
	b.WriteString("- If user asks in English, respond in English\n")
	b.WriteString("- If user asks in Hindi, respond in Hindi\n")
	b.WriteString("- Be helpful, friendly, and professional\n")
	b.WriteString("- Use emojis sparingly when appropriate\n")
	b.WriteString("- Keep responses concise and clear\n")

	switch category {
	case CategoryGold:
		b.WriteString("Focus on gold investments, digital gold benefits, and purchase guidance.")
	case CategoryFinance:
		b.WriteString("Provide helpful personal finance advice, savings tips, or investment guidance.")
	}
	return b.String()
}
