package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dian-resoluciones/internal/application/auth"
	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/memory"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/dian-resoluciones/internal/interfaces/http"
	"github.com/jhoicas/dian-resoluciones/pkg/config"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type apiFixture struct {
	app     *fiber.App
	admin   string
	op      string
	metrics *metrics.Metrics
}

func newAPI(t *testing.T, rl config.RateLimitConfig) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepo()
	_, err := users.Add(testCompanyID, "admin@empresa.co", "secreto123", apphttp.RoleAdmin)
	require.NoError(t, err)

	m := metrics.New()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ServiceName:  "dian-resoluciones-test",
		ResolutionUC: usecase.NewResolutionUseCase(store, store, nil, zerolog.Nop()),
		AuthUC: auth.NewAuthUseCase(users, auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer,
		}),
		JWTSecret: testJWTSecret,
		Metrics:   m,
		Logger:    zerolog.Nop(),
		RateLimit: rl,
	})
	return &apiFixture{
		app:     app,
		admin:   tokenForRole(t, apphttp.RoleAdmin),
		op:      tokenForRole(t, apphttp.RoleOperador),
		metrics: m,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func validRequest(prefix string, from, to int64) dto.ResolutionRequest {
	return dto.ResolutionRequest{
		CompanyID:        testCompanyID,
		DocumentType:     dian.DocumentInvoice,
		Prefix:           prefix,
		NumberRangeFrom:  from,
		NumberRangeTo:    to,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		ResolutionNumber: "18760000001",
		ValidFrom:        "2020-01-01",
		ValidTo:          "2099-12-31",
	}
}

func (f *apiFixture) create(t *testing.T, req dto.ResolutionRequest) dto.ResolutionResponse {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions", f.admin, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.ResolutionResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func (f *apiFixture) list(t *testing.T) []dto.ResolutionResponse {
	t.Helper()
	resp, body := f.do(t, http.MethodGet, "/api/dian/resolutions?companyId="+testCompanyID, f.op, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out []dto.ResolutionResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func errorBody(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD
// ──────────────────────────────────────────────────────────────────────────────

func TestResolutions_CrearYListarConservaCampos(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})
	req := validRequest("SETP", 990000000, 995000000)

	created := f.create(t, req)
	assert.Equal(t, req.NumberRangeFrom, created.CurrentNumber)
	assert.Equal(t, int64(5000001), created.RemainingNumbers)
	assert.True(t, created.IsValid)

	list := f.list(t)
	require.Len(t, list, 1)
	got := list[0].ToRequest()
	active := true
	req.Active = &active
	assert.Equal(t, req, got)
}

func TestResolutions_RangoInvertido_Retorna400ConCampos(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions", f.admin, validRequest("FE", 100, 1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := errorBody(t, body)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Contains(t, e.Fields, "number_range_to")
	assert.Empty(t, f.list(t), "no se persiste nada")
}

func TestResolutions_CampoDesconocido_Retorna400(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	raw, err := json.Marshal(validRequest("FE", 1, 10))
	require.NoError(t, err)
	withExtra := string(raw[:len(raw)-1]) + `,"current_number":5}`

	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions", f.admin, withExtra)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", errorBody(t, body).Code)
}

func TestResolutions_OperadorNoPuedeCrear(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions", f.op, validRequest("FE", 1, 10))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorBody(t, body).Code)
}

func TestResolutions_OtraEmpresa_Retorna403(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, _ := f.do(t, http.MethodGet, "/api/dian/resolutions?companyId=otra", f.op, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req := validRequest("FE", 1, 10)
	req.CompanyID = "otra"
	resp, _ = f.do(t, http.MethodPost, "/api/dian/resolutions", f.admin, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	other := tokenFor(t, "otra", apphttp.RoleAdmin, testTTL)
	created := f.create(t, validRequest("FE", 1, 10))
	resp, _ = f.do(t, http.MethodGet, "/api/dian/resolutions/"+created.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestResolutions_Duplicada_Retorna409(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})
	f.create(t, validRequest("FE", 1, 10))

	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions", f.admin, validRequest("FE", 11, 20))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_ACTIVE_RESOLUTION", errorBody(t, body).Code)
}

func TestResolutions_ActualizarYObtener(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})
	created := f.create(t, validRequest("FE", 1, 10))

	upd := created.ToRequest()
	upd.NumberRangeTo = 50
	upd.ValidTo = "2098-06-30"
	resp, body := f.do(t, http.MethodPut, "/api/dian/resolutions/"+created.ID, f.admin, upd)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodGet, "/api/dian/resolutions/"+created.ID, f.op, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.ResolutionResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, int64(50), got.NumberRangeTo)
	assert.Equal(t, "2098-06-30", got.ValidTo)

	resp, _ = f.do(t, http.MethodPut, "/api/dian/resolutions/no-existe", f.admin, upd)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisión y borrado
// ──────────────────────────────────────────────────────────────────────────────

func TestResolutions_EliminarUsada_Retorna409YListaIntacta(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})
	created := f.create(t, validRequest("FE", 899, 1000))

	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions/issue", f.op,
		dto.IssueRequest{DocumentType: dian.DocumentInvoice, Prefix: "FE"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var issued dto.IssuedNumberResponse
	require.NoError(t, json.Unmarshal(body, &issued))
	assert.Equal(t, "FE899", issued.FullNumber)
	assert.Equal(t, int64(101), issued.Remaining)

	before := f.list(t)
	resp, body = f.do(t, http.MethodDelete, "/api/dian/resolutions/"+created.ID, f.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CANNOT_DELETE_USED_RESOLUTION", errorBody(t, body).Code)
	assert.Equal(t, before, f.list(t))
}

func TestResolutions_EliminarSinUso_Retorna204(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})
	created := f.create(t, validRequest("FE", 1, 10))

	resp, _ := f.do(t, http.MethodDelete, "/api/dian/resolutions/"+created.ID, f.admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/dian/resolutions/"+created.ID, f.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorBody(t, body).Code)
}

func TestResolutions_EmitirSinResolucion_Retorna409(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, body := f.do(t, http.MethodPost, "/api/dian/resolutions/issue", f.op,
		dto.IssueRequest{DocumentType: dian.DocumentCreditNote, Prefix: "NC"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_ACTIVE_RESOLUTION", errorBody(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login, salud, métricas y límite de tasa
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidasDevuelveToken(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: "ADMIN@empresa.co", Password: "secreto123"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, apphttp.RoleAdmin, out.User.Role)

	resp, _ = f.do(t, http.MethodGet, "/api/dian/resolutions", "Bearer "+out.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_PasswordIncorrecto_Retorna401(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: "admin@empresa.co", Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorBody(t, body).Code)
}

func TestHealthYMetrics(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{})

	resp, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	f.list(t)
	resp, body = f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/dian/resolutions",status="200"} 1`)
}

func TestRateLimit_ExcesoRetorna429(t *testing.T) {
	f := newAPI(t, config.RateLimitConfig{RPS: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		resp, _ := f.do(t, http.MethodGet, "/api/dian/resolutions", f.op, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := f.do(t, http.MethodGet, "/api/dian/resolutions", f.op, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorBody(t, body).Code)

	other := tokenFor(t, "otra", apphttp.RoleOperador, testTTL)
	resp, _ = f.do(t, http.MethodGet, "/api/dian/resolutions", other, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "cada empresa tiene su propio bucket")
}
