package record_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gosigo/internal/api/record"
	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/middleware"
	"gosigo/internal/pkg/query"
)

// MockRecordService é uma implementação mock de record.RecordService.
type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) Query(ctx context.Context, p access.Principal, c string, params query.Params) (query.Page, error) {
	args := m.Called(ctx, p, c, params)
	return args.Get(0).(query.Page), args.Error(1)
}

func (m *MockRecordService) Get(ctx context.Context, p access.Principal, c string, id int64) (domain.Record, error) {
	args := m.Called(ctx, p, c, id)
	return args.Get(0).(domain.Record), args.Error(1)
}

func (m *MockRecordService) Create(ctx context.Context, p access.Principal, c string, fields map[string]interface{}) (domain.Record, error) {
	args := m.Called(ctx, p, c, fields)
	return args.Get(0).(domain.Record), args.Error(1)
}

func (m *MockRecordService) Update(ctx context.Context, p access.Principal, c string, id int64, fields map[string]interface{}) (domain.Record, error) {
	args := m.Called(ctx, p, c, id, fields)
	return args.Get(0).(domain.Record), args.Error(1)
}

func (m *MockRecordService) Patch(ctx context.Context, p access.Principal, c string, id int64, changes map[string]interface{}) (domain.Record, error) {
	args := m.Called(ctx, p, c, id, changes)
	return args.Get(0).(domain.Record), args.Error(1)
}

func (m *MockRecordService) Delete(ctx context.Context, p access.Principal, c string, id int64) error {
	args := m.Called(ctx, p, c, id)
	return args.Error(0)
}

var admin = access.Principal{UserID: 1, Name: "admin", Role: domain.RoleAdmin}

func newRequest(method, target, category, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.SetPathValue("category", category)
	return req.WithContext(middleware.WithPrincipal(req.Context(), admin))
}

func sampleRecord() domain.Record {
	return domain.Record{
		ID:        1704873600000,
		CreatedAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		Fields:    map[string]interface{}{"municipio": "Luanda", "crime": "Roubo"},
	}
}

func TestListHandler_AllRecordsWithoutPagination(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	expected := query.Params{Search: "roubo", Sort: query.SortState{Column: "data", Descending: true}, PageSize: query.AllRecords}
	svc.On("Query", mock.Anything, admin, "criminalidade", expected).
		Return(query.Page{Items: []domain.Record{sampleRecord()}, Total: 1, TotalPages: 1, Page: 1}, nil)

	rr := httptest.NewRecorder()
	h.ListHandler(rr, newRequest(http.MethodGet, "/v1/records/criminalidade?q=roubo&sort=data&order=desc", "criminalidade", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))
	assert.Equal(t, "1", rr.Header().Get("X-Total-Pages"))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Luanda", body[0]["municipio"])
	assert.Equal(t, float64(1704873600000), body[0]["id"])
	svc.AssertExpectations(t)
}

func TestListHandler_Paginated(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	expected := query.Params{DateFrom: "2024-01-01", DateTo: "2024-01-31", Page: 2, PageSize: 5}
	svc.On("Query", mock.Anything, admin, "sinistralidade", expected).
		Return(query.Page{Items: []domain.Record{}, Total: 7, TotalPages: 2, Page: 2, PageSize: 5}, nil)

	rr := httptest.NewRecorder()
	h.ListHandler(rr, newRequest(http.MethodGet, "/v1/records/sinistralidade?dateFrom=2024-01-01&dateTo=2024-01-31&page=2&pageSize=5", "sinistralidade", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "7", rr.Header().Get("X-Total-Count"))
	assert.Equal(t, "2", rr.Header().Get("X-Total-Pages"))
	assert.Equal(t, "2", rr.Header().Get("X-Page"))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestListHandler_InvalidParams(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	for _, target := range []string{
		"/v1/records/criminalidade?page=0",
		"/v1/records/criminalidade?pageSize=abc",
		"/v1/records/criminalidade?order=sideways",
		"/v1/records/criminalidade?id=abc",
	} {
		rr := httptest.NewRecorder()
		h.ListHandler(rr, newRequest(http.MethodGet, target, "criminalidade", ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	svc.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListHandler_SingleByID(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())
	svc.On("Get", mock.Anything, admin, "criminalidade", int64(1704873600000)).Return(sampleRecord(), nil)

	rr := httptest.NewRecorder()
	h.ListHandler(rr, newRequest(http.MethodGet, "/v1/records/criminalidade?id=1704873600000", "criminalidade", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"crime":"Roubo"`)
}

func TestListHandler_SingleByIDAsFieldList(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())
	svc.On("Get", mock.Anything, admin, "criminalidade", int64(1704873600000)).Return(sampleRecord(), nil)

	rr := httptest.NewRecorder()
	h.ListHandler(rr, newRequest(http.MethodGet, "/v1/records/criminalidade?id=1704873600000&format=fields", "criminalidade", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	var fields []domain.Field
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fields))
	require.Len(t, fields, 4)
	assert.Equal(t, "id", fields[0].Name)
	assert.Equal(t, float64(1704873600000), fields[0].Value)
	assert.Equal(t, domain.Field{Name: "createdAt", Value: "2024-01-10T08:00:00Z"}, fields[1])
	assert.Equal(t, domain.Field{Name: "crime", Value: "Roubo"}, fields[2])
	assert.Equal(t, domain.Field{Name: "municipio", Value: "Luanda"}, fields[3])

	rr = httptest.NewRecorder()
	h.ListHandler(rr, newRequest(http.MethodGet, "/v1/records/criminalidade?id=1704873600000&format=tabela", "criminalidade", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNumberOfCalls(t, "Get", 1)
}

func TestListHandler_UnknownCategory(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())
	svc.On("Query", mock.Anything, admin, "armas", mock.Anything).
		Return(query.Page{}, apperror.NewUnknownCategoryError("armas"))

	rr := httptest.NewRecorder()
	h.ListHandler(rr, newRequest(http.MethodGet, "/v1/records/armas", "armas", ""))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateHandler(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	fields := map[string]interface{}{"municipio": "Luanda", "crime": "Roubo"}
	svc.On("Create", mock.Anything, admin, "criminalidade", fields).Return(sampleRecord(), nil)

	rr := httptest.NewRecorder()
	h.CreateHandler(rr, newRequest(http.MethodPost, "/v1/records/criminalidade", "criminalidade", `{"municipio":"Luanda","crime":"Roubo"}`))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	svc.AssertExpectations(t)
}

func TestCreateHandler_BodyMustBeObject(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	for _, body := range []string{`[1,2]`, `"texto"`, `null`, `{"municipio":`} {
		rr := httptest.NewRecorder()
		h.CreateHandler(rr, newRequest(http.MethodPost, "/v1/records/criminalidade", "criminalidade", body))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateHandler_RequiresID(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	rr := httptest.NewRecorder()
	h.UpdateHandler(rr, newRequest(http.MethodPut, "/v1/records/criminalidade", "criminalidade", `{}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "id")
}

func TestPatchHandler(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())

	changes := map[string]interface{}{"estado": "Arquivado", "bairro": nil}
	svc.On("Patch", mock.Anything, admin, "criminalidade", int64(7), changes).Return(sampleRecord(), nil)

	rr := httptest.NewRecorder()
	h.PatchHandler(rr, newRequest(http.MethodPatch, "/v1/records/criminalidade?id=7", "criminalidade", `{"estado":"Arquivado","bairro":null}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestDeleteHandler(t *testing.T) {
	svc := new(MockRecordService)
	h := record.NewHandler(svc, logger.NewNop())
	svc.On("Delete", mock.Anything, admin, "criminalidade", int64(7)).Return(nil).Once()
	svc.On("Delete", mock.Anything, admin, "criminalidade", int64(8)).Return(apperror.NewNotFoundError("Registo 8 não existe.")).Once()

	rr := httptest.NewRecorder()
	h.DeleteHandler(rr, newRequest(http.MethodDelete, "/v1/records/criminalidade?id=7", "criminalidade", ""))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = httptest.NewRecorder()
	h.DeleteHandler(rr, newRequest(http.MethodDelete, "/v1/records/criminalidade?id=8", "criminalidade", ""))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_WithoutPrincipal(t *testing.T) {
	h := record.NewHandler(new(MockRecordService), logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/records/criminalidade", nil)
	req.SetPathValue("category", "criminalidade")
	rr := httptest.NewRecorder()
	h.ListHandler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
