package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shirtforge-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/shirtforge-backend/pkg/redis"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyHeader     = "Idempotency-Key"
	replayedHeader        = "Idempotent-Replayed"
	// inFlightTTL bounds how long a crashed request can hold its key.
	inFlightTTL = time.Minute
)

type routeMatcher func(string) bool

type idempotencyRule struct {
	method   string
	matcher  routeMatcher
	ttl      time.Duration
	required bool
}

// idempotencyRules lists the writes that may be replayed. The key is
// optional on finalize because order_ref already dedupes order lines.
func idempotencyRules(finalizeTTL time.Duration) []idempotencyRule {
	if finalizeTTL <= 0 {
		finalizeTTL = 7 * defaultIdempotencyTTL
	}
	adminWrite := func(method, suffix string) idempotencyRule {
		return idempotencyRule{
			method:   method,
			matcher:  matchPrefixSuffix("/api/v1/admin/products/", suffix),
			ttl:      defaultIdempotencyTTL,
			required: true,
		}
	}
	return []idempotencyRule{
		{method: http.MethodPost, matcher: matchExact("/api/v1/design-orders"), ttl: finalizeTTL},
		adminWrite(http.MethodPut, "/config"),
		adminWrite(http.MethodPut, "/inventory"),
		adminWrite(http.MethodPost, "/inventory/restock"),
	}
}

// idempotencyRecord is what sits under a key. Status 0 marks a claim whose
// request has not finished yet.
type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (rec idempotencyRecord) inFlight() bool { return rec.Status == 0 }

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	rules []idempotencyRule
	logg  *logger.Logger
}

// Idempotency claims the Idempotency-Key before the handler runs and replays
// the recorded response for later requests carrying the same key. Server
// errors release the claim so a retry reaches the handler again.
func Idempotency(store pkgredis.IdempotencyStore, finalizeTTL time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	g := &idempotencyGuard{store: store, rules: idempotencyRules(finalizeTTL), logg: logg}
	return g.wrap
}

func (g *idempotencyGuard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := matchRule(g.rules, r.Method, routePattern(r))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		if clientKey == "" {
			if rule.required {
				g.fail(w, r, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		key := g.store.IdempotencyKey(buildScope(r), clientKey)
		hash := fingerprint(body)

		claimed, err := g.claim(r.Context(), key, hash)
		if err != nil {
			g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
			return
		}
		if !claimed {
			g.replay(w, r, key, hash)
			return
		}

		capture := &responseCapture{ResponseWriter: w}
		next.ServeHTTP(capture, r)
		g.settle(r.Context(), key, hash, capture, rule.ttl)
	})
}

func (g *idempotencyGuard) claim(ctx context.Context, key, hash string) (bool, error) {
	marker, err := json.Marshal(idempotencyRecord{RequestHash: hash})
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, string(marker), inFlightTTL)
}

func (g *idempotencyGuard) replay(w http.ResponseWriter, r *http.Request, key, hash string) {
	stored, err := g.store.Get(r.Context(), key)
	switch {
	case pkgredis.IsNil(err):
		// the claim expired between SetNX and Get
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotent request is still in progress"))
		return
	case err != nil:
		g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != hash {
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.inFlight() {
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotent request is still in progress"))
		return
	}

	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(body)
}

func (g *idempotencyGuard) settle(ctx context.Context, key, hash string, capture *responseCapture, ttl time.Duration) {
	status := capture.statusOrOK()
	if status >= http.StatusInternalServerError {
		if err := g.store.Del(ctx, key); err != nil {
			g.logFailure(ctx, "idempotency.release_failed", err)
		}
		return
	}

	payload, err := json.Marshal(idempotencyRecord{
		Status:      status,
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		ContentType: capture.Header().Get("Content-Type"),
		RequestHash: hash,
	})
	if err != nil {
		g.logFailure(ctx, "idempotency.marshal_failed", err)
		return
	}
	if err := g.store.Set(ctx, key, string(payload), ttl); err != nil {
		g.logFailure(ctx, "idempotency.persist_failed", err)
	}
}

func (g *idempotencyGuard) fail(w http.ResponseWriter, r *http.Request, err error) {
	responses.WriteError(r.Context(), g.logg, w, err)
}

func (g *idempotencyGuard) logFailure(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

// buildScope keys records by caller. Storefront requests are anonymous and
// share the empty user segment.
func buildScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// routePattern prefers the resolved chi pattern. Inside a subrouter the
// pattern still ends in a wildcard, so the raw path is used instead.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.Contains(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func matchRule(rules []idempotencyRule, method, pattern string) (idempotencyRule, bool) {
	if pattern == "" {
		return idempotencyRule{}, false
	}
	for _, rule := range rules {
		if rule.method == method && rule.matcher(pattern) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

func matchExact(path string) routeMatcher {
	return func(pattern string) bool { return pattern == path }
}

func matchPrefixSuffix(prefix, suffix string) routeMatcher {
	return func(pattern string) bool {
		return strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
