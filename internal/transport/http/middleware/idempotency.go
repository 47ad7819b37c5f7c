package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraise/internal/transport/http/api"
)

// ErrIdempotencyConflict is returned when a key is replayed with a different
// request body.
var ErrIdempotencyConflict = errors.New("idempotency key reused with a different payload")

type IdempotencyStore struct {
	Pool *pgxpool.Pool
}

type storedIdempotentResponse struct {
	Status int
	Body   []byte
}

func (s *IdempotencyStore) check(ctx context.Context, tenantID, userID, key, requestHash string) (*storedIdempotentResponse, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT request_hash, response_status, response_body
		FROM idempotency_keys
		WHERE tenant_id = $1 AND user_id = $2 AND idempotency_key = $3`,
		tenantID, userID, key,
	)

	var (
		savedHash string
		status    int
		body      []byte
	)
	if err := row.Scan(&savedHash, &status, &body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if savedHash != requestHash {
		return nil, ErrIdempotencyConflict
	}
	return &storedIdempotentResponse{Status: status, Body: body}, nil
}

func (s *IdempotencyStore) save(ctx context.Context, tenantID, userID, key, requestHash string, status int, body []byte) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO idempotency_keys (tenant_id, user_id, idempotency_key, request_hash, response_status, response_body)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, user_id, idempotency_key) DO NOTHING`,
		tenantID, userID, key, requestHash, status, body,
	)
	return err
}

type bufferingResponseWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bufferingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *bufferingResponseWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// Idempotency replays the stored response when an authenticated client repeats
// a mutation with the same Idempotency-Key header and an identical body.
func Idempotency(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if key == "" || !isMutation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			user, ok := GetUser(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "unable to read request body", GetRequestID(r.Context()))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
			requestHash := RequestHash(r.Method, r.URL.Path, raw)

			stored, err := store.check(r.Context(), user.TenantID, user.UserID, key, requestHash)
			if err != nil {
				if errors.Is(err, ErrIdempotencyConflict) {
					api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", GetRequestID(r.Context()))
					return
				}
				api.Fail(w, http.StatusInternalServerError, "idempotency_error", "unable to check idempotency key", GetRequestID(r.Context()))
				return
			}
			if stored != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replay", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			rec := &bufferingResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < http.StatusInternalServerError {
				_ = store.save(r.Context(), user.TenantID, user.UserID, key, requestHash, rec.status, rec.buf.Bytes())
			}
		})
	}
}

func RequestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func isMutation(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
