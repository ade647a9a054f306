package v1handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookverse/internal/api/handler/v1handler"
	"bookverse/internal/events"
	"bookverse/pkg/domain"
	"bookverse/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeEvents implements events.Events with overridable function fields.
type fakeEvents struct {
	ingest func(ctx context.Context, kind domain.EventKind, repoName, applicationKey string, payload json.RawMessage) (*domain.Event, error)
	list   func(ctx context.Context, kind domain.EventKind, status domain.EventStatus, cursor string, limit uint) ([]domain.Event, string, error)
	get    func(ctx context.Context, id domain.EventID) (*domain.Event, error)
	del    func(ctx context.Context, id domain.EventID) error
}

func (f *fakeEvents) Ingest(ctx context.Context,
	kind domain.EventKind,
	repoName, applicationKey string,
	payload json.RawMessage) (*domain.Event, error) {
	return f.ingest(ctx, kind, repoName, applicationKey, payload)
}

func (f *fakeEvents) List(ctx context.Context,
	kind domain.EventKind,
	status domain.EventStatus,
	cursor string,
	limit uint) ([]domain.Event, string, error) {
	return f.list(ctx, kind, status, cursor, limit)
}

func (f *fakeEvents) Get(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	return f.get(ctx, id)
}

func (f *fakeEvents) Delete(ctx context.Context, id domain.EventID) error {
	return f.del(ctx, id)
}

var _ events.Events = (*fakeEvents)(nil)

// newTestHandler builds a handler with a fresh RS256 key pair and returns it
// together with a valid bearer token.
func newTestHandler(t *testing.T, evs events.Events) (http.Handler, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	sec, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: string(pubPEM)})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "ci",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return v1handler.New(v1handler.Deps{Events: evs}, sec), signed
}

func doRequest(t *testing.T, h http.Handler, token, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestCreateEvent(t *testing.T) {
	id := domain.EventID(uuid.New())
	evs := &fakeEvents{
		ingest: func(_ context.Context,
			kind domain.EventKind,
			repoName, applicationKey string,
			payload json.RawMessage) (*domain.Event, error) {
			require.Equal(t, domain.EventReleaseCompleted, kind)
			require.Equal(t, "bookverse-web", repoName)
			require.Equal(t, "bookverse-web", applicationKey)
			require.JSONEq(t, `{"version":"1.4.8"}`, string(payload))

			return &domain.Event{ID: id, Kind: kind, RepoName: repoName, Status: domain.EventStatusPending}, nil
		},
	}
	h, token := newTestHandler(t, evs)

	rec := doRequest(t, h, token, http.MethodPost, "/v1/events", `{
		"event_type": "release_completed",
		"repo_name": "bookverse-web",
		"application_key": "bookverse-web",
		"client_payload": {"version": "1.4.8"}
	}`)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var got domain.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, id, got.ID)
	require.Equal(t, domain.EventStatusPending, got.Status)
}

func TestCreateEvent_InvalidBody(t *testing.T) {
	h, token := newTestHandler(t, &fakeEvents{})

	rec := doRequest(t, h, token, http.MethodPost, "/v1/events", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEvent_UnknownKind(t *testing.T) {
	evs := &fakeEvents{
		ingest: func(context.Context, domain.EventKind, string, string, json.RawMessage) (*domain.Event, error) {
			return nil, serrors.With(serrors.ErrBadRequest, "unknown event kind")
		},
	}
	h, token := newTestHandler(t, evs)

	rec := doRequest(t, h, token, http.MethodPost, "/v1/events", `{"event_type":"mystery","repo_name":"r"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEvents(t *testing.T) {
	evs := &fakeEvents{
		list: func(_ context.Context,
			kind domain.EventKind,
			status domain.EventStatus,
			cursor string,
			limit uint) ([]domain.Event, string, error) {
			require.Equal(t, domain.EventPromotionFailed, kind)
			require.Equal(t, domain.EventStatusPending, status)
			require.Equal(t, uint(5), limit)
			require.Empty(t, cursor)

			return []domain.Event{{RepoName: "bookverse-web"}}, "2026-01-02T15:04:05Z", nil
		},
	}
	h, token := newTestHandler(t, evs)

	rec := doRequest(t, h, token, http.MethodGet, "/v1/events?kind=promotion_failed&status=PENDING&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Items      []domain.Event `json:"items"`
		NextCursor string         `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	require.Equal(t, "2026-01-02T15:04:05Z", got.NextCursor)
}

func TestListEvents_InvalidLimit(t *testing.T) {
	h, token := newTestHandler(t, &fakeEvents{})

	rec := doRequest(t, h, token, http.MethodGet, "/v1/events?limit=zero", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEvent(t *testing.T) {
	id := domain.EventID(uuid.New())
	evs := &fakeEvents{
		get: func(_ context.Context, gotID domain.EventID) (*domain.Event, error) {
			require.Equal(t, id, gotID)

			return &domain.Event{ID: gotID, Status: domain.EventStatusProcessed}, nil
		},
	}
	h, token := newTestHandler(t, evs)

	rec := doRequest(t, h, token, http.MethodGet, "/v1/events/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetEvent_NotFound(t *testing.T) {
	evs := &fakeEvents{
		get: func(context.Context, domain.EventID) (*domain.Event, error) {
			return nil, serrors.With(serrors.ErrNotFound, "event not found")
		},
	}
	h, token := newTestHandler(t, evs)

	rec := doRequest(t, h, token, http.MethodGet, "/v1/events/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEvent_InvalidID(t *testing.T) {
	h, token := newTestHandler(t, &fakeEvents{})

	rec := doRequest(t, h, token, http.MethodGet, "/v1/events/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEvent(t *testing.T) {
	evs := &fakeEvents{
		del: func(context.Context, domain.EventID) error { return nil },
	}
	h, token := newTestHandler(t, evs)

	rec := doRequest(t, h, token, http.MethodDelete, "/v1/events/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	h, _ := newTestHandler(t, &fakeEvents{})

	rec := doRequest(t, h, "", http.MethodGet, "/v1/events", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	h, _ := newTestHandler(t, &fakeEvents{})

	rec := doRequest(t, h, "not-a-token", http.MethodGet, "/v1/events", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_WrongKey(t *testing.T) {
	h, _ := newTestHandler(t, &fakeEvents{})

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "ci",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(otherKey)
	require.NoError(t, err)

	rec := doRequest(t, h, signed, http.MethodGet, "/v1/events", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
