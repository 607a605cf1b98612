package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// ProgressFunc receives batch progress during TranslateLines.
// done is the number of source lines fully translated so far, total the
// overall line count, and translated the output accumulated so far.
type ProgressFunc func(done, total int, translated string)

// Translator converts text between languages.
//
// Translate handles a single blob of text. TranslateLines batches a
// list of lines under the request size cap and reports progress after
// each batch. Both return classified *Error values on failure.
type Translator interface {
	Translate(ctx context.Context, text, srcLang, targetLang string) (string, error)
	TranslateLines(ctx context.Context, lines []string, srcLang, targetLang string, progress ProgressFunc) (string, error)
}

const (
	// maxBatchRunes is the per-request character budget. Larger requests
	// get the free endpoint throttled much sooner.
	maxBatchRunes = 3500

	// rateLimitCooldown is slept once before retrying a batch that came
	// back rate-limited.
	rateLimitCooldown = 30 * time.Second

	apiEndpoint = "https://translation.googleapis.com/language/translate/v2"
)

var freeBaseURLs = []string{
	"https://translate.google.com",
	"https://translate.google.cn",
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:94.0) Gecko/20100101 Firefox/94.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.45 Safari/537.36",
}

// GoogleTranslator talks to the Google translation backends. With an
// API key it uses the official v2 endpoint, without one it falls back
// to the free endpoint with a signed token.
//
// Safe for concurrent use; the rotating identity and rand source are
// guarded so batch workers can share one instance.
type GoogleTranslator struct {
	apiKey     string
	httpClient *http.Client
	policy     RetryPolicy
	tokens     TokenGenerator
	logger     *log.Logger

	apiURL    string
	freeBases []string

	mu        sync.Mutex
	userAgent string
	rng       *rand.Rand

	sleep    sleepFunc
	maxBatch int
}

// Option customizes a GoogleTranslator.
type Option func(*GoogleTranslator)

// WithAPIKey switches the client to the authenticated v2 endpoint.
func WithAPIKey(key string) Option {
	return func(g *GoogleTranslator) { g.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GoogleTranslator) { g.httpClient = client }
}

// WithRetryPolicy replaces the default backoff schedule.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(g *GoogleTranslator) { g.policy = policy }
}

// WithTokenGenerator replaces the request signer for the free endpoint.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(g *GoogleTranslator) { g.tokens = gen }
}

// NewGoogle creates a translator client.
//
// Example:
//
//	tr := translate.NewGoogle(translate.WithAPIKey(key))
//	out, err := tr.Translate(ctx, "Hello", "en", "fr")
func NewGoogle(opts ...Option) *GoogleTranslator {
	g := &GoogleTranslator{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		policy:     DefaultRetryPolicy(),
		tokens:     NewTokenGenerator(),
		logger:     log.Default(),
		apiURL:     apiEndpoint,
		freeBases:  freeBaseURLs,
		userAgent:  userAgents[0],
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      contextSleep,
		maxBatch:   maxBatchRunes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// rotateUserAgent picks a fresh outbound identity before a retry.
func (g *GoogleTranslator) rotateUserAgent() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userAgent = userAgents[g.rng.Intn(len(userAgents))]
}

func (g *GoogleTranslator) currentUserAgent() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userAgent
}

func (g *GoogleTranslator) backoffFor(attempt int) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.policy.Backoff(attempt, g.rng)
}

// Translate translates text from srcLang to targetLang. Empty or
// whitespace-only input translates to the empty string without a
// request.
func (g *GoogleTranslator) Translate(ctx context.Context, text, srcLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if g.apiKey != "" {
		return g.translateAPI(ctx, text, srcLang, targetLang)
	}
	return g.translateFree(ctx, text, srcLang, targetLang)
}

type apiRequest struct {
	Text   string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type apiResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *GoogleTranslator) translateAPI(ctx context.Context, text, srcLang, targetLang string) (string, error) {
	payload, err := json.Marshal(apiRequest{Text: text, Source: srcLang, Target: targetLang, Format: "text"})
	if err != nil {
		return "", &Error{Kind: KindFatal, Op: "encode API request", Err: err}
	}
	endpoint := g.apiURL + "?key=" + url.QueryEscape(g.apiKey)

	body, err := g.doWithRetry(ctx, "API request", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", g.currentUserAgent())
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &Error{Kind: KindFatal, Op: "decode API response", Err: err}
	}
	if len(parsed.Data.Translations) == 0 {
		return "", &Error{Kind: KindFatal, Op: "decode API response", Err: fmt.Errorf("no translations in response")}
	}
	return parsed.Data.Translations[0].TranslatedText, nil
}

func (g *GoogleTranslator) translateFree(ctx context.Context, text, srcLang, targetLang string) (string, error) {
	tk := g.tokens.Sign(text)
	form := url.Values{"q": {text}}.Encode()

	var lastErr error
	for _, base := range g.freeBases {
		endpoint := base + "/translate_a/single?client=t" +
			"&sl=" + url.QueryEscape(srcLang) + "&tl=" + url.QueryEscape(targetLang) +
			"&dt=at&dt=bd&dt=ex&dt=ld&dt=md&dt=qca&dt=rw&dt=rm&dt=ss&dt=t" +
			"&ie=UTF-8&oe=UTF-8&clearbtn=1&otf=1&pc=1&srcrom=0&ssel=0&tsel=0&kc=1" +
			"&tk=" + url.QueryEscape(tk)

		body, err := g.doWithRetry(ctx, "free request", func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("User-Agent", g.currentUserAgent())
			return req, nil
		})
		if err != nil {
			lastErr = err
			g.logger.Warn("translation via %s failed: %v, trying next domain", base, err)
			continue
		}
		return parseFreePayload(body)
	}
	return "", lastErr
}

// parseFreePayload extracts the translated text from the nested-array
// payload of the free endpoint. Each element of payload[0] carries the
// translated fragment at index 0; the trailing element is endpoint
// metadata and is skipped.
func parseFreePayload(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &Error{Kind: KindFatal, Op: "decode free response", Err: err}
	}
	if len(payload) == 0 {
		return "", &Error{Kind: KindFatal, Op: "decode free response", Err: fmt.Errorf("empty payload")}
	}
	sentences, ok := payload[0].([]any)
	if !ok {
		return "", &Error{Kind: KindFatal, Op: "decode free response", Err: fmt.Errorf("unexpected payload shape")}
	}

	var sb strings.Builder
	for i := 0; i < len(sentences)-1; i++ {
		pair, ok := sentences[i].([]any)
		if !ok || len(pair) == 0 {
			return "", &Error{Kind: KindFatal, Op: "decode free response", Err: fmt.Errorf("unexpected sentence shape at %d", i)}
		}
		fragment, ok := pair[0].(string)
		if !ok {
			return "", &Error{Kind: KindFatal, Op: "decode free response", Err: fmt.Errorf("non-text fragment at %d", i)}
		}
		sb.WriteString(fragment)
	}
	return sb.String(), nil
}

// doWithRetry runs the request with the configured backoff schedule.
// Rate-limit and server errors are retried up to MaxAttempts times with
// a rotated identity, other HTTP errors fail immediately.
func (g *GoogleTranslator) doWithRetry(ctx context.Context, op string, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= g.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			g.rotateUserAgent()
			backoff := g.backoffFor(attempt)
			g.logger.Warn("%s failed (%v), retry %d/%d after %s",
				op, lastErr, attempt, g.policy.MaxAttempts, backoff)
			if err := g.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		req, err := build()
		if err != nil {
			return nil, &Error{Kind: KindFatal, Op: op, Err: err}
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &Error{Kind: KindTransient, Op: op, Err: err}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &Error{Kind: KindTransient, Op: op, Err: err}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		kind := classifyStatus(resp.StatusCode)
		herr := &Error{Kind: kind, Op: op, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncateBody(body))}
		if kind == KindFatal {
			return nil, herr
		}
		lastErr = herr
	}
	return nil, lastErr
}

func truncateBody(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// TranslateLines translates lines in batches under the character
// budget, joined by newlines, and returns the concatenated output with
// one translated batch per newline-terminated block.
func (g *GoogleTranslator) TranslateLines(ctx context.Context, lines []string, srcLang, targetLang string, progress ProgressFunc) (string, error) {
	if len(lines) == 0 {
		return "", nil
	}

	var sb strings.Builder
	lastIdx := 0
	totalLen := 0

	for i, line := range lines {
		lineLen := utf8.RuneCountInString(line)
		if totalLen+lineLen <= g.maxBatch {
			totalLen += lineLen
			continue
		}

		batch := strings.Join(lines[lastIdx:i], "\n")
		if strings.TrimSpace(batch) != "" {
			out, err := g.translateBatch(ctx, batch, srcLang, targetLang)
			if err != nil {
				g.logger.Error("translation failed at line %d/%d: %v", i, len(lines), err)
				return "", err
			}
			sb.WriteString(out)
			sb.WriteString("\n")
			if progress != nil {
				progress(i, len(lines), sb.String())
			}
		}

		// Pause between batches, scaled by batch size, to stay under the
		// backend's rate limit.
		pause := time.Duration(float64(time.Second) * (1 + float64(utf8.RuneCountInString(batch))/2000))
		g.logger.Info("pausing %s between translation batches", pause.Round(10*time.Millisecond))
		if err := g.sleep(ctx, pause); err != nil {
			return "", err
		}

		lastIdx = i
		totalLen = lineLen
	}

	final := strings.Join(lines[lastIdx:], "\n")
	if strings.TrimSpace(final) != "" {
		out, err := g.translateBatch(ctx, final, srcLang, targetLang)
		if err != nil {
			g.logger.Error("translation failed on final batch: %v", err)
			return "", err
		}
		sb.WriteString(out)
		if progress != nil {
			progress(len(lines), len(lines), sb.String())
		}
	}
	return sb.String(), nil
}

// translateBatch translates one batch, absorbing a single rate-limit
// response with a fixed cooldown. A second rate limit propagates so the
// caller can apply its own longer backoff.
func (g *GoogleTranslator) translateBatch(ctx context.Context, batch, srcLang, targetLang string) (string, error) {
	out, err := g.Translate(ctx, batch, srcLang, targetLang)
	if err == nil {
		return out, nil
	}
	if !IsRateLimited(err) {
		return "", err
	}

	g.logger.Warn("rate limit hit during batch translation, cooling down for %s", rateLimitCooldown)
	if serr := g.sleep(ctx, rateLimitCooldown); serr != nil {
		return "", serr
	}
	return g.Translate(ctx, batch, srcLang, targetLang)
}
