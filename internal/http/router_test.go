package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callcenter-console/backend/internal/config"
	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/service"
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	store  *db.MemoryStore
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := db.NewMemoryStore()
	store.SeedConfig(
		models.ConfigRow{DropdownName: "request_type", Value1: "Hỏi thông tin"},
		models.ConfigRow{DropdownName: "service_type", Value1: "Dịch vụ CNTT"},
		models.ConfigRow{DropdownName: "channel", Value1: "Hotline"},
	)
	auth := &service.AuthService{Store: store}
	require.NoError(t, auth.EnsureAgent(ctx, models.Agent{ID: "SONTX", Role: models.RoleAgent}, "agentpw"))
	require.NoError(t, auth.EnsureAgent(ctx, models.Agent{ID: "ADMIN", Role: models.RoleAdmin}, "adminpw"))

	catalog := &service.CatalogCache{Store: store, Logger: zerolog.Nop()}
	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	cfg := config.Config{
		StoreDriver:     "memory",
		CORSAllowed:     "*",
		RequestTimeout:  5 * time.Second,
		MaxUploadSizeMB: 1,
		SessionTTL:      time.Hour,
		PresenceWindow:  5 * time.Minute,
		ImportBatchSize: 100,
	}
	return &apiFixture{t: t, router: Router(cfg, store, catalog, zerolog.Nop()), store: store}
}

func (a *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *apiFixture) login(id, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"agent_id": id, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func TestLoginRequired(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/api/config", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"agent_id": "SONTX", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errorBody](t, w).Error.Code)

	w = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"agent_id": "SONTX"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)
}

func TestSessionRestoreAndLogout(t *testing.T) {
	a := newAPI(t)
	token := a.login("SONTX", "agentpw")

	w := a.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Agent models.Agent `json:"agent"`
	}](t, w)
	assert.Equal(t, "SONTX", me.Agent.ID)

	w = a.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearchAndSaveFlow(t *testing.T) {
	a := newAPI(t)
	token := a.login("SONTX", "agentpw")

	w := a.do(http.MethodGet, "/api/customers/search?phone=912%20345%20678", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	search := decode[struct {
		Customer       models.Customer        `json:"customer"`
		Created        bool                   `json:"created"`
		PendingTickets []models.PendingTicket `json:"pending_tickets"`
	}](t, w)
	assert.True(t, search.Created)
	assert.Equal(t, "0912345678", search.Customer.Phone)
	assert.Empty(t, search.PendingTickets)

	path := "/api/customers/" + itoa(search.Customer.Code) + "/interactions"
	form := map[string]string{
		"note":         "hỏi thông tin",
		"request_type": "Hỏi thông tin",
		"service_type": "Dịch vụ CNTT",
		"status":       "PENDING",
		"channel":      "Hotline",
	}
	w = a.do(http.MethodPost, path, token, form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[service.SaveResult](t, w)
	assert.True(t, created.Created)
	assert.Equal(t, "SONTX", created.Ticket.AgentID)

	form["status"] = "DONE"
	w = a.do(http.MethodPost, path, token, form)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[service.SaveResult](t, w)
	assert.Equal(t, created.Ticket.Serial, done.Ticket.Serial)
	assert.Equal(t, models.StatusDone, done.Ticket.Status)

	w = a.do(http.MethodGet, "/api/tickets/"+done.Ticket.Serial+"/interactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/customers/search?phone=0912345678", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[struct {
		Created      bool                 `json:"created"`
		Interactions []models.Interaction `json:"interactions"`
	}](t, w)
	assert.False(t, again.Created)
	require.Len(t, again.Interactions, 2)
	for _, i := range again.Interactions {
		assert.Equal(t, models.StatusDone, i.Status)
	}
}

func TestSaveConflictsAndValidation(t *testing.T) {
	a := newAPI(t)
	token := a.login("SONTX", "agentpw")

	w := a.do(http.MethodGet, "/api/customers/search?phone=0912345678", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	code := decode[struct {
		Customer models.Customer `json:"customer"`
	}](t, w).Customer.Code
	path := "/api/customers/" + itoa(code) + "/interactions"

	w = a.do(http.MethodPost, path, token, map[string]string{"status": "PENDING"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)

	form := map[string]string{
		"note": "n", "request_type": "Hỏi thông tin", "service_type": "Dịch vụ CNTT",
		"status": "PENDING", "channel": "Hotline",
	}
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, path, token, form).Code)
	form["selection"] = "new"
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, path, token, form).Code)

	delete(form, "selection")
	w = a.do(http.MethodPost, path, token, form)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "SELECTION_REQUIRED", body.Error.Code)
	var pending []models.PendingTicket
	require.NoError(t, json.Unmarshal(body.Error.Details, &pending))
	assert.Len(t, pending, 2)

	form["selection"] = "existing"
	form["ticket_serial"] = "UNKNOWN-9"
	w = a.do(http.MethodPost, path, token, form)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TICKET_NOT_PENDING", decode[errorBody](t, w).Error.Code)

	w = a.do(http.MethodPost, "/api/customers/999/interactions", token, map[string]string{
		"note": "n", "request_type": "Hỏi thông tin", "service_type": "Dịch vụ CNTT", "status": "PENDING", "channel": "Hotline",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminImportRequiresAdmin(t *testing.T) {
	a := newAPI(t)
	agentToken := a.login("SONTX", "agentpw")
	adminToken := a.login("ADMIN", "adminpw")

	upload := func(token string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "misscalls.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("ani,start_stamp,duration\n0912345678,2024-08-01 10:00:00,12\n0988,2024-08-02 10:00:00,x\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/misscalls/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		return w
	}

	w := upload(agentToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode[errorBody](t, w).Error.Code)

	w = upload(adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[service.ImportSummary](t, w)
	assert.Equal(t, 2, summary.Inserted)

	w = a.do(http.MethodGet, "/api/misscalls/summary", agentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[models.MissCallSummary](t, w).Total)
}

func TestReportsAndPresence(t *testing.T) {
	a := newAPI(t)
	token := a.login("SONTX", "agentpw")

	w := a.do(http.MethodGet, "/api/agents/online", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	online := decode[[]models.Agent](t, w)
	require.Len(t, online, 1)
	assert.Equal(t, "SONTX", online[0].ID)

	w = a.do(http.MethodGet, "/api/reports/agent-interactions?from=2024-01-01", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, "/api/reports/processing-times?to=not-a-date", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/reports/export.xlsx", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestConfigEndpoint(t *testing.T) {
	a := newAPI(t)
	token := a.login("SONTX", "agentpw")

	w := a.do(http.MethodGet, "/api/config", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cat := decode[service.Catalog](t, w)
	assert.Len(t, cat.Categories[service.CategoryChannel], 1)

	w = a.do(http.MethodPost, "/api/admin/config/reload", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
