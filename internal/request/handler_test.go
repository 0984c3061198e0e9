package request

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, files *stubFiles) (*Handler, *memoryRequestRepo) {
	t.Helper()
	repo := newMemoryRequestRepo()
	svc, _ := newTestService(repo, files)
	return NewHandler(nil, svc, nil, nil), repo
}

func mountTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/requests", h.MountRoutes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndShow(t *testing.T) {
	h, _ := newTestHandler(t, &stubFiles{})
	router := mountTestRouter(h)

	rec := postJSON(t, router, "/requests", map[string]any{
		"type":         "PETTY_CASH",
		"requested_by": 7,
		"items": []map[string]any{
			{"description": "deck paint", "quantity": 2, "unit_price": "500", "currency": "NGN"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, StateSubmitted, created.State)

	getReq := httptest.NewRequest(http.MethodGet, "/requests/"+created.ID.String(), nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
}

func TestHandlerApproveAndGateError(t *testing.T) {
	h, _ := newTestHandler(t, &stubFiles{})
	router := mountTestRouter(h)

	rec := postJSON(t, router, "/requests", map[string]any{
		"type":         "PETTY_CASH",
		"requested_by": 7,
		"items": []map[string]any{
			{"description": "deck paint", "quantity": 2, "unit_price": "500", "currency": "NGN"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/requests/" + created.ID.String()

	for _, role := range []Role{RoleOperationsManager, RoleManagingDirector, RoleAccounts} {
		rec = postJSON(t, router, base+"/approve", map[string]any{"role": string(role), "actor_id": 1})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Requester confirmation is blocked by the approval gate.
	rec = postJSON(t, router, base+"/approve", map[string]any{"role": "REQUESTER", "actor_id": 7})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "MISSING_INVOICE")

	// A role outside the current station conflicts.
	rec = postJSON(t, router, base+"/approve", map[string]any{"role": "ACCOUNTS", "actor_id": 1})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerRejectValidation(t *testing.T) {
	h, _ := newTestHandler(t, &stubFiles{})
	router := mountTestRouter(h)

	rec := postJSON(t, router, "/requests", map[string]any{
		"type":         "PETTY_CASH",
		"requested_by": 7,
		"items": []map[string]any{
			{"description": "deck paint", "quantity": 1, "unit_price": "100", "currency": "NGN"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/requests/" + created.ID.String()

	// Two characters is under the minimum comment length.
	rec = postJSON(t, router, base+"/reject", map[string]any{"role": "OPERATIONS_MANAGER", "actor_id": 1, "comment": "no"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, base+"/reject", map[string]any{"role": "OPERATIONS_MANAGER", "actor_id": 1, "comment": "over budget"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerBadInput(t *testing.T) {
	h, _ := newTestHandler(t, &stubFiles{})
	router := mountTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/requests/not-a-uuid/approve", map[string]any{"role": "ACCOUNTS", "actor_id": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
