package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
	httperr "github.com/beacon-lab/project-beacon/internal/core/errors"
	"github.com/beacon-lab/project-beacon/internal/core/storage"
	"github.com/beacon-lab/project-beacon/internal/rules"
	"github.com/beacon-lab/project-beacon/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store storage.EventStore, ruleSet []rules.Rule) *Service {
	t.Helper()

	repo := rules.NewMemoryRepository()
	if len(ruleSet) > 0 {
		require.NoError(t, repo.Replace(context.Background(), "aj12", ruleSet))
	}
	return NewService(validation.NewEventValidator(repo), store, nil, 1, time.Second)
}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func postEvent(r *gin.Engine, appID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/apps/"+appID+"/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestIngestHandler_Success(t *testing.T) {
	store := storage.NewMemoryEventStore()
	svc := newTestService(t, store, []rules.Rule{
		{EventType: "card_click", Field: "card_name", Type: rules.TypeText, Required: true},
	})
	r := newTestRouter(svc)

	body, _ := json.Marshal(v1.IncomingEvent{
		EventName: "Card_Click",
		Payload:   map[string]interface{}{"card_name": "gold"},
		Identity:  "user-1",
		SessionID: "sess-1",
	})

	resp := postEvent(r, "aj12", body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result v1.IngestResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, v1.StatusValid, result.Status)
	require.NotEmpty(t, result.StoredID)
	require.Len(t, result.FieldResults, 1)

	stored, total, err := store.PageEvents(context.Background(), "aj12", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "card_click", stored[0].EventType)
	require.Len(t, stored[0].Fingerprint, 64)
}

func TestIngestHandler_InvalidEventStillAccepted(t *testing.T) {
	store := storage.NewMemoryEventStore()
	svc := newTestService(t, store, []rules.Rule{
		{EventType: "card_click", Field: "amount", Type: rules.TypeInteger, Required: true},
	})
	r := newTestRouter(svc)

	body, _ := json.Marshal(v1.IncomingEvent{
		EventName: "card_click",
		Payload:   map[string]interface{}{"amount": "not a number"},
	})

	resp := postEvent(r, "aj12", body)

	// Rule violations are recorded, not rejected.
	require.Equal(t, http.StatusAccepted, resp.Code)
	var result v1.IngestResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, v1.StatusInvalid, result.Status)
	require.Equal(t, v1.FieldInvalid, result.FieldResults[0].Status)

	_, total, err := store.PageEvents(context.Background(), "aj12", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestIngestHandler_InvalidJSON(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryEventStore(), nil)
	r := newTestRouter(svc)

	resp := postEvent(r, "aj12", []byte("{not json"))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestIngestHandler_MissingEventName(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryEventStore(), nil)
	r := newTestRouter(svc)

	body, _ := json.Marshal(v1.IncomingEvent{
		Payload: map[string]interface{}{"card_name": "gold"},
	})

	resp := postEvent(r, "aj12", body)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Contains(t, errResp.Message, "eventName")
}

func TestIngestHandler_OversizedBody(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryEventStore(), nil)
	r := newTestRouter(svc)

	big := make([]byte, 2*1024*1024)
	resp := postEvent(r, "aj12", big)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

type failingEventStore struct {
	storage.EventStore
}

func (failingEventStore) SaveEvent(ctx context.Context, event *v1.ValidatedEvent) error {
	return errors.New("disk full")
}

func TestIngestHandler_StorageFailure(t *testing.T) {
	svc := newTestService(t, failingEventStore{}, nil)
	r := newTestRouter(svc)

	body, _ := json.Marshal(v1.IncomingEvent{EventName: "card_click"})
	resp := postEvent(r, "aj12", body)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpStorageError, errResp.ErrorType)
}

func TestIngest_DeduplicatesIdenticalPayloads(t *testing.T) {
	store := storage.NewMemoryEventStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	// Same business fact retried three times with different transport metadata.
	var lastID string
	for i, session := range []string{"sess-1", "sess-2", "sess-3"} {
		result, err := svc.Ingest(ctx, "aj12", &v1.IncomingEvent{
			EventName: "card_click",
			Payload:   map[string]interface{}{"card_name": "gold"},
			SessionID: session,
			Retry:     i,
		})
		require.NoError(t, err)
		lastID = result.StoredID
	}

	records, total, err := store.PageEvents(ctx, "aj12", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, lastID, records[0].ID)
}

func TestIngest_DistinctPayloadsBothSurvive(t *testing.T) {
	store := storage.NewMemoryEventStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	for _, card := range []string{"gold", "platinum"} {
		_, err := svc.Ingest(ctx, "aj12", &v1.IncomingEvent{
			EventName: "card_click",
			Payload:   map[string]interface{}{"card_name": card},
		})
		require.NoError(t, err)
	}

	_, total, err := store.PageEvents(ctx, "aj12", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestIngest_KeyOrderDoesNotDefeatDedup(t *testing.T) {
	store := storage.NewMemoryEventStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "aj12", &v1.IncomingEvent{
		EventName: "card_click",
		Payload:   map[string]interface{}{"a": float64(1), "b": float64(2)},
	})
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, "aj12", &v1.IncomingEvent{
		EventName: "card_click",
		Payload:   map[string]interface{}{"b": float64(2), "a": float64(1)},
	})
	require.NoError(t, err)

	_, total, err := store.PageEvents(ctx, "aj12", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestIngest_DedupScopedByEventType(t *testing.T) {
	store := storage.NewMemoryEventStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	payload := map[string]interface{}{"card_name": "gold"}
	for _, name := range []string{"card_click", "card_view"} {
		_, err := svc.Ingest(ctx, "aj12", &v1.IncomingEvent{EventName: name, Payload: payload})
		require.NoError(t, err)
	}

	_, total, err := store.PageEvents(ctx, "aj12", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}
