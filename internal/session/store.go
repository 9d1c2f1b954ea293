// Package session holds the in-memory conversational state for each user.
// Sessions live only for the lifetime of the process and are evicted after a
// configurable idle TTL, so the store cannot grow without bound.
package session

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Turn is one utterance in a conversation, in chat-completion form.
type Turn struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"`
}

// Session is the conversational state for one user identity.
//
// AwaitingConfirmation is set after the assistant proposes a gold purchase
// and cleared by the next reply, whatever it is. History grows with every
// query; only the most recent turns are ever read (see LastContents).
type Session struct {
	History              []Turn
	LastIntent           string
	AwaitingConfirmation bool
}

// Append adds a turn to the conversation history.
func (s *Session) Append(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
}

// LastTurns returns up to n most recent turns.
func (s *Session) LastTurns(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) > n {
		return s.History[len(s.History)-n:]
	}
	return s.History
}

// LastContents returns the contents of up to n most recent turns, oldest
// first. This is the "previousContext" window exposed by the query endpoint.
func (s *Session) LastContents(n int) []string {
	turns := s.LastTurns(n)
	if len(turns) == 0 {
		return nil
	}
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Content)
	}
	return out
}

// Store keeps sessions keyed by user email in a TTL cache. Expired entries
// are purged in the background; a user who returns after expiry simply starts
// a fresh conversation.
//
// Concurrent requests for the same email race on read-modify-write: the last
// writer wins. That is acceptable for a single-user chat cadence and is the
// documented limitation of this store.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a session store whose entries expire after ttl of
// inactivity and are swept every sweep interval.
func NewStore(ttl, sweep time.Duration) *Store {
	return &Store{cache: cache.New(ttl, sweep)}
}

// Get returns the session for email, creating an empty one on first use.
// The TTL is refreshed on every call, so active conversations never expire.
func (st *Store) Get(email string) *Session {
	if x, found := st.cache.Get(email); found {
		s := x.(*Session)
		st.cache.Set(email, s, cache.DefaultExpiration)
		return s
	}
	s := &Session{}
	st.cache.Set(email, s, cache.DefaultExpiration)
	return s
}

// Save writes the session back under email, refreshing its TTL.
func (st *Store) Save(email string, s *Session) {
	st.cache.Set(email, s, cache.DefaultExpiration)
}

// Len reports the number of live sessions (including not-yet-swept expired
// entries), used for monitoring and tests.
func (st *Store) Len() int {
	return st.cache.ItemCount()
}
