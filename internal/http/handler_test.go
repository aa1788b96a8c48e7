package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evergrid/contracts-service/internal/auth"
	"github.com/evergrid/contracts-service/internal/http/middleware"
	"github.com/evergrid/contracts-service/internal/model"
	"github.com/evergrid/contracts-service/internal/service"
)

type stubContractStore struct {
	contracts []model.Contract
	files     []model.ContractFile
}

func (s *stubContractStore) ListContracts(_ context.Context, filter model.ContractFilter) ([]model.Contract, int64, error) {
	total := int64(len(s.contracts))
	start := filter.Offset
	if start > len(s.contracts) {
		start = len(s.contracts)
	}
	end := start + filter.Limit
	if end > len(s.contracts) {
		end = len(s.contracts)
	}
	return s.contracts[start:end], total, nil
}

func (s *stubContractStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	for i := range s.contracts {
		if s.contracts[i].ID == id {
			contract := s.contracts[i]
			return &contract, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubContractStore) CreateContract(_ context.Context, contract model.Contract) (*model.Contract, error) {
	contract.ID = uuid.New()
	contract.CreatedAt = time.Now().UTC()
	contract.UpdatedAt = contract.CreatedAt
	s.contracts = append(s.contracts, contract)
	return &contract, nil
}

func (s *stubContractStore) UpdateContract(_ context.Context, id uuid.UUID, upd model.ContractUpdate) (*model.Contract, error) {
	for i := range s.contracts {
		if s.contracts[i].ID != id {
			continue
		}
		if upd.Zip != nil {
			s.contracts[i].Zip = upd.Zip
		}
		if upd.City != nil {
			s.contracts[i].City = upd.City
		}
		if upd.FormStage != nil {
			s.contracts[i].FormStage = *upd.FormStage
		}
		s.contracts[i].UpdatedAt = time.Now().UTC()
		contract := s.contracts[i]
		return &contract, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubContractStore) CreateContractFile(_ context.Context, file model.ContractFile) (*model.ContractFile, error) {
	file.ID = uuid.New()
	file.CreatedAt = time.Now().UTC()
	s.files = append(s.files, file)
	return &file, nil
}

func (s *stubContractStore) ListContractFiles(_ context.Context, contractID uuid.UUID) ([]model.ContractFile, error) {
	var out []model.ContractFile
	for _, file := range s.files {
		if file.ContractID == contractID {
			out = append(out, file)
		}
	}
	return out, nil
}

type stubProfileStore struct {
	profiles []model.ZipProfile
	agencies map[string]model.Agency
}

func (s *stubProfileStore) FindZipProfiles(_ context.Context, zipCode string, _, _ *string) ([]model.ZipProfile, error) {
	var out []model.ZipProfile
	for _, profile := range s.profiles {
		if profile.ZipCode == zipCode {
			out = append(out, profile)
		}
	}
	return out, nil
}

func (s *stubProfileStore) GetAgencyByCode(_ context.Context, code string) (*model.Agency, error) {
	agency, ok := s.agencies[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &agency, nil
}

type stubBlobStore struct{}

func (stubBlobStore) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://storage.example.org/" + key, nil
}

func (stubBlobStore) Delete(context.Context, string) error { return nil }

type stubSummary struct{}

func (stubSummary) Generate(model.Contract) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func principalMiddleware(principal model.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, principal)
		c.Next()
	}
}

func newTestRouter(t *testing.T, store *stubContractStore, profiles *stubProfileStore, principal model.Principal) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	contractSvc := service.NewContractService(store, stubBlobStore{}, stubSummary{})
	profileSvc := service.NewProfileService(profiles)
	handler := NewHandler(contractSvc, profileSvc, zerolog.Nop())

	router := gin.New()
	handler.Register(router, principalMiddleware(principal))
	return router
}

func doRequest(router *gin.Engine, method, target string, body *bytes.Buffer, header map[string]string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func testPrincipal() model.Principal {
	return model.Principal{
		UserID:   uuid.New(),
		Email:    "pat@example.org",
		FullName: "Pat Example",
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubContractStore{}, &stubProfileStore{}, testPrincipal())
	rec := doRequest(router, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListContractsEndpoint(t *testing.T) {
	principal := testPrincipal()
	city := "Troy"
	store := &stubContractStore{contracts: []model.Contract{
		{ID: uuid.New(), UserID: principal.UserID, City: &city, FormStage: model.FormStageSchedule, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New(), UserID: principal.UserID, FormStage: model.FormStageProjectID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}}
	router := newTestRouter(t, store, &stubProfileStore{}, principal)

	t.Run("returns items and total_count", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts?page=1&limit=1", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Items      []contractResponse `json:"items"`
			TotalCount int64              `json:"total_count"`
		}
		decodeJSON(t, rec, &body)
		if len(body.Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(body.Items))
		}
		if body.TotalCount != 2 {
			t.Fatalf("expected total_count 2, got %d", body.TotalCount)
		}
	})

	t.Run("rejects non-positive page", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts?page=0", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts?limit=many", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed no_dates", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts?no_dates=maybe", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed date_from is dropped, not rejected", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts?date_from=whenever", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestSubmitContractEndpoint(t *testing.T) {
	principal := testPrincipal()

	t.Run("creates without contract_id", func(t *testing.T) {
		store := &stubContractStore{}
		router := newTestRouter(t, store, &stubProfileStore{}, principal)

		payload := `{"zip": "12180", "date": "2026-01-21", "start_at_time": "09:30"}`
		rec := doRequest(router, http.MethodPost, "/contracts", bytes.NewBufferString(payload),
			map[string]string{"Content-Type": "application/json"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp contractResponse
		decodeJSON(t, rec, &resp)
		if resp.UserID != principal.UserID.String() {
			t.Fatalf("contract not attributed to caller: %s", resp.UserID)
		}
		if resp.FormStage != string(model.FormStageProjectID) {
			t.Fatalf("expected default stage, got %s", resp.FormStage)
		}
		if resp.Date == nil || *resp.Date != "2026-01-21" {
			t.Fatalf("unexpected date %v", resp.Date)
		}
		if resp.StartAtTime == nil || *resp.StartAtTime != "09:30:00" {
			t.Fatalf("expected canonical time, got %v", resp.StartAtTime)
		}
		if resp.FormattedDatetime == nil || *resp.FormattedDatetime != "January 21, 2026 at 9:30 AM" {
			t.Fatalf("unexpected formatted_datetime %v", resp.FormattedDatetime)
		}
	})

	t.Run("updates with contract_id", func(t *testing.T) {
		existing := model.Contract{
			ID:        uuid.New(),
			UserID:    principal.UserID,
			FormStage: model.FormStageProjectID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		store := &stubContractStore{contracts: []model.Contract{existing}}
		router := newTestRouter(t, store, &stubProfileStore{}, principal)

		payload := `{"contract_id": "` + existing.ID.String() + `", "city": "Troy", "form_stage": "schedule"}`
		rec := doRequest(router, http.MethodPost, "/contracts", bytes.NewBufferString(payload),
			map[string]string{"Content-Type": "application/json"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp contractResponse
		decodeJSON(t, rec, &resp)
		if resp.ID != existing.ID.String() {
			t.Fatalf("expected update of %s, got %s", existing.ID, resp.ID)
		}
		if resp.City == nil || *resp.City != "Troy" {
			t.Fatalf("city not updated: %v", resp.City)
		}
		if resp.FormStage != string(model.FormStageSchedule) {
			t.Fatalf("form_stage not updated: %s", resp.FormStage)
		}
	})

	t.Run("rejects another user's contract", func(t *testing.T) {
		other := model.Contract{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			FormStage: model.FormStageProjectID,
		}
		store := &stubContractStore{contracts: []model.Contract{other}}
		router := newTestRouter(t, store, &stubProfileStore{}, principal)

		payload := `{"contract_id": "` + other.ID.String() + `", "city": "Troy"}`
		rec := doRequest(router, http.MethodPost, "/contracts", bytes.NewBufferString(payload),
			map[string]string{"Content-Type": "application/json"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed contract_id", func(t *testing.T) {
		router := newTestRouter(t, &stubContractStore{}, &stubProfileStore{}, principal)
		payload := `{"contract_id": "not-a-uuid"}`
		rec := doRequest(router, http.MethodPost, "/contracts", bytes.NewBufferString(payload),
			map[string]string{"Content-Type": "application/json"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects unparseable date", func(t *testing.T) {
		router := newTestRouter(t, &stubContractStore{}, &stubProfileStore{}, principal)
		payload := `{"date": "sometime soon"}`
		rec := doRequest(router, http.MethodPost, "/contracts", bytes.NewBufferString(payload),
			map[string]string{"Content-Type": "application/json"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetContractEndpoint(t *testing.T) {
	principal := testPrincipal()
	router := newTestRouter(t, &stubContractStore{}, &stubProfileStore{}, principal)

	t.Run("rejects a malformed id", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts/nope", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("reports unknown contracts", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contracts/"+uuid.NewString(), nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestLookupEndpoints(t *testing.T) {
	principal := testPrincipal()
	profiles := &stubProfileStore{
		profiles: []model.ZipProfile{{ZipCode: "12180", City: "Troy"}},
		agencies: map[string]model.Agency{"NYS-01": {Code: "NYS-01", Name: "Homes and Community Renewal"}},
	}
	router := newTestRouter(t, &stubContractStore{}, profiles, principal)

	t.Run("contractors requires zip_code", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contractors", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("contractors returns matches", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/contractors?zip_code=12180", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var out []model.ZipProfile
		decodeJSON(t, rec, &out)
		if len(out) != 1 || out[0].City != "Troy" {
			t.Fatalf("unexpected lookup result %+v", out)
		}
	})

	t.Run("agency lookup maps unknown codes to 404", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/agencies/NYS-99", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("agency lookup returns the agency", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/agencies/NYS-01", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestUploadContractFileEndpoint(t *testing.T) {
	principal := testPrincipal()
	existing := model.Contract{ID: uuid.New(), UserID: principal.UserID, FormStage: model.FormStageDocuments}
	store := &stubContractStore{contracts: []model.Contract{existing}}
	router := newTestRouter(t, store, &stubProfileStore{}, principal)

	t.Run("stores the upload", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "inspection.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("pdf bytes")); err != nil {
			t.Fatalf("write form file: %v", err)
		}
		writer.Close()

		rec := doRequest(router, http.MethodPost, "/contracts/"+existing.ID.String()+"/files", body,
			map[string]string{"Content-Type": writer.FormDataContentType()})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var saved model.ContractFile
		decodeJSON(t, rec, &saved)
		if saved.FileName != "inspection.pdf" || saved.FileExt != "pdf" {
			t.Fatalf("unexpected file metadata %+v", saved)
		}
		if !strings.Contains(saved.FileURL, "contracts/"+existing.ID.String()+"/") {
			t.Fatalf("file url not namespaced by contract: %s", saved.FileURL)
		}
	})

	t.Run("rejects requests without a file part", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/contracts/"+existing.ID.String()+"/files", nil,
			map[string]string{"Content-Type": "multipart/form-data"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestContractSummaryPDFEndpoint(t *testing.T) {
	principal := testPrincipal()
	existing := model.Contract{ID: uuid.New(), UserID: principal.UserID, FormStage: model.FormStageClosed}
	store := &stubContractStore{contracts: []model.Contract{existing}}
	router := newTestRouter(t, store, &stubProfileStore{}, principal)

	rec := doRequest(router, http.MethodGet, "/contracts/"+existing.ID.String()+"/summary.pdf", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "contract-"+existing.ID.String()+".pdf") {
		t.Fatalf("unexpected disposition %s", cd)
	}
}

type stubUserResolver struct {
	user *model.User
	err  error
}

func (s *stubUserResolver) GetOrCreateUser(context.Context, string, string) (*model.User, error) {
	return s.user, s.err
}

func signTestToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthMiddlewareFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "test-secret"

	user := &model.User{ID: uuid.New(), Email: "pat@example.org", FullName: "pat"}
	parser := auth.NewParser(secret)

	newAuthRouter := func(resolver middleware.UserResolver) *gin.Engine {
		contractSvc := service.NewContractService(&stubContractStore{}, stubBlobStore{}, stubSummary{})
		profileSvc := service.NewProfileService(&stubProfileStore{})
		handler := NewHandler(contractSvc, profileSvc, zerolog.Nop())

		router := gin.New()
		handler.Register(router, middleware.Auth(parser, resolver))
		return router
	}

	expiry := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	accessToken := signTestToken(t, secret, expiry)
	identityToken := signTestToken(t, secret, auth.IdentityClaims{
		Email:            user.Email,
		Username:         user.FullName,
		RegisteredClaims: expiry,
	})

	t.Run("resolves the principal from a valid token pair", func(t *testing.T) {
		router := newAuthRouter(&stubUserResolver{user: user})
		rec := doRequest(router, http.MethodPost, "/auth/user", nil, map[string]string{
			"X-Access-Token":   accessToken,
			"X-Identity-Token": identityToken,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
		}
		decodeJSON(t, rec, &resp)
		if resp.ID != user.ID || resp.Email != user.Email {
			t.Fatalf("unexpected principal %+v", resp)
		}
	})

	t.Run("rejects missing headers", func(t *testing.T) {
		router := newAuthRouter(&stubUserResolver{user: user})
		rec := doRequest(router, http.MethodPost, "/auth/user", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a bad access token", func(t *testing.T) {
		router := newAuthRouter(&stubUserResolver{user: user})
		rec := doRequest(router, http.MethodPost, "/auth/user", nil, map[string]string{
			"X-Access-Token":   "garbage",
			"X-Identity-Token": identityToken,
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("health stays public", func(t *testing.T) {
		router := newAuthRouter(&stubUserResolver{user: user})
		rec := doRequest(router, http.MethodGet, "/health", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
