// Package services – ChatService
//
// This file implements ChatService, the conversational core of the assistant.
// Each query runs through a small per-user state machine: if the previous
// reply proposed a gold purchase, the next query is first read as a yes/no
// confirmation; otherwise the query is classified and either answered with a
// fixed gold pitch (plus a purchase proposal) or handed to the responder for
// a free-form reply.
//
// Session state lives in a TTL store keyed by email. A pending purchase
// proposal is consumed by the very next query, whatever it says: an ambiguous
// reply clears the pending flag and falls through to normal classification,
// so the machine can never wedge in the confirmation state.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kuberai/go-gold-backend/internal/llm"
	"github.com/kuberai/go-gold-backend/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	// intentGoldPurchase marks a session whose last query showed gold intent.
	intentGoldPurchase = "gold_purchase"

	// contextWindow is how many recent turns feed the responder and the
	// previousContext field of the reply.
	contextWindow = 3
)

// Fixed conversational replies. These are product copy, not model output,
// and are returned verbatim.
const (
	goldPitch = "✨ Gold has always been a trusted way to secure your wealth. Digital Gold lets you invest easily, without worrying about storage or safety."

	purchaseProposal = "💰 Would you like me to help you purchase some gold right now?"

	confirmReply = "Great choice! 🚀 Let’s get started with your gold purchase. Just enter the amount in ₹ and I’ll calculate the gold grams for you."

	declineReply = "👍 Got it! No pressure. You can explore gold investments anytime you feel ready. Meanwhile, I’m here if you want to know more about savings, SIPs, or insurance. 😊"
)

// Confirmation vocabulary in English, Hindi, and transliterated Hindi.
// Latin tokens use RE2 word boundaries; Devanagari tokens are bounded by
// script-class lookalikes because \b only understands ASCII.
var (
	yesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\byes\b`),
		regexp.MustCompile(`(?i)\bhaan\b`),
		devanagariWord("हाँ"),
		devanagariWord("हो"),
	}
	noPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bno\b`),
		regexp.MustCompile(`(?i)\bnahin\b`),
		devanagariWord("नहीं"),
	}
)

// devanagariWord compiles a pattern matching w as a whole Devanagari word.
func devanagariWord(w string) *regexp.Regexp {
	return regexp.MustCompile(`(^|\P{Devanagari})` + regexp.QuoteMeta(w) + `($|\P{Devanagari})`)
}

// IntentClassifier decides whether a query carries gold-purchase intent.
type IntentClassifier interface {
	// GoldIntent returns the query's category and whether it should be
	// treated as gold intent.
	GoldIntent(ctx context.Context, query string) (category string, gold bool)
}

// ReplyGenerator produces free-form replies for non-gold queries.
type ReplyGenerator interface {
	Respond(ctx context.Context, query, category string, history []llm.Message) string
}

// ChatReply is the outcome of one query turn.
type ChatReply struct {
	// Message is the assistant's reply text.
	Message string
	// RedirectToPurchase tells the client to open the purchase flow.
	RedirectToPurchase bool
	// PreviousContext holds the contents of the most recent turns, oldest
	// first. Only populated on free-form replies.
	PreviousContext []string
}

// ChatService coordinates session state, intent classification, and reply
// generation for the query endpoint.
type ChatService struct {
	// Sessions is the per-user conversational state store.
	Sessions *session.Store
	// Classifier decides gold intent.
	Classifier IntentClassifier
	// Responder generates free-form replies.
	Responder ReplyGenerator

	// MaxQueryRunes caps accepted queries by rune length. Zero disables
	// the check.
	MaxQueryRunes int
}

// NewChatService constructs a ChatService.
func NewChatService(sessions *session.Store, classifier IntentClassifier, responder ReplyGenerator) *ChatService {
	return &ChatService{
		Sessions:   sessions,
		Classifier: classifier,
		Responder:  responder,
	}
}

// Answer runs one query through the conversation state machine and returns
// the assistant's reply.
//
// The user's query is recorded in the session history on every branch;
// assistant turns are recorded only for free-form replies, so the fixed
// pitch/confirmation copy never pollutes the model's context window.
func (s *ChatService) Answer(ctx context.Context, email, query string) (*ChatReply, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(attribute.Int("query.len", len(query))),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.MaxQueryRunes > 0 && utf8.RuneCountInString(query) > s.MaxQueryRunes {
		return nil, ErrQueryTooLong
	}

	sess := s.Sessions.Get(email)

	if sess.AwaitingConfirmation {
		// The proposal is consumed by this query no matter what it says.
		sess.AwaitingConfirmation = false

		switch {
		case matchesAny(yesPatterns, query):
			sess.Append(roleUser, query)
			s.Sessions.Save(email, sess)
			span.SetAttributes(attribute.String("chat.branch", "confirm"))
			return &ChatReply{Message: confirmReply, RedirectToPurchase: true}, nil

		case matchesAny(noPatterns, query):
			sess.Append(roleUser, query)
			s.Sessions.Save(email, sess)
			span.SetAttributes(attribute.String("chat.branch", "decline"))
			return &ChatReply{Message: declineReply}, nil
		}
		// Ambiguous reply: fall through to normal classification.
	}

	category, gold := s.Classifier.GoldIntent(ctx, query)
	span.SetAttributes(
		attribute.String("chat.category", category),
		attribute.Bool("chat.gold", gold),
	)

	if gold {
		sess.LastIntent = intentGoldPurchase
		sess.AwaitingConfirmation = true
		sess.Append(roleUser, query)
		s.Sessions.Save(email, sess)
		return &ChatReply{
			Message:            goldPitch + "\n" + purchaseProposal,
			RedirectToPurchase: true,
		}, nil
	}

	sess.LastIntent = category
	sess.AwaitingConfirmation = false

	history := toMessages(sess.LastTurns(contextWindow))
	sess.Append(roleUser, query)

	answer := s.Responder.Respond(ctx, query, category, history)

	sess.Append(roleAssistant, answer)
	s.Sessions.Save(email, sess)

	return &ChatReply{
		Message:         answer,
		PreviousContext: sess.LastContents(contextWindow),
	}, nil
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func toMessages(turns []session.Turn) []llm.Message {
	if len(turns) == 0 {
		return nil
	}
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Message{Role: t.Role, Content: t.Content})
	}
	return out
}
