package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxTranslateBody bounds how much of a translation response is read.
const maxTranslateBody = 1 << 20

// Translator converts free-form text to English so that the keyword
// heuristic can run against a single vocabulary.
type Translator interface {
	ToEnglish(ctx context.Context, text string) (string, error)
}

// GoogleTranslator calls the public translate endpoint with sl=auto&tl=en.
// The endpoint replies with a nested JSON array; the translated chunks sit
// at response[0][i][0].
type GoogleTranslator struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoogleTranslator builds a translator against baseURL. An empty baseURL
// yields a translator whose ToEnglish always fails, which callers treat as
// "use the original text".
func NewGoogleTranslator(baseURL string, timeout time.Duration) *GoogleTranslator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleTranslator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ToEnglish translates text to English. Any transport, status, or decode
// failure is returned as an error; callers fall back to the raw text.
func (t *GoogleTranslator) ToEnglish(ctx context.Context, text string) (string, error) {
	if t == nil || t.baseURL == "" {
		return "", errors.New("nlp: translator not configured")
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", "en")
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("nlp: build translate request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("nlp: translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxTranslateBody))
		return "", fmt.Errorf("nlp: translate endpoint returned %d", resp.StatusCode)
	}

	var payload []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTranslateBody)).Decode(&payload); err != nil {
		return "", fmt.Errorf("nlp: decode translate response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("nlp: empty translate response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("nlp: decode translate segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var chunk string
		if err := json.Unmarshal(seg[0], &chunk); err != nil {
			continue
		}
		b.WriteString(chunk)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("nlp: translate response had no text")
	}
	return out, nil
}
