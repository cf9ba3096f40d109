package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contractlens/internal/domain"
	"contractlens/internal/handler"
	"contractlens/internal/service"
	"contractlens/mocks/servicemock"
)

func TestRunHandler_List(t *testing.T) {
	svc := new(servicemock.MockRunService)
	h := handler.NewRunHandler(svc, nil)

	runs := []domain.Run{{ID: uuid.New(), Mode: domain.ModeAnalyze, Result: json.RawMessage(`{"analysis":[]}`)}}
	svc.On("List", mock.Anything, domain.ModeAnalyze, 0, 20).Return(runs, 1, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs?mode=analyze&limit=500", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestRunHandler_List_InvalidMode(t *testing.T) {
	svc := new(servicemock.MockRunService)
	h := handler.NewRunHandler(svc, nil)

	svc.On("List", mock.Anything, domain.Mode("bogus"), 0, 20).Return(nil, 0, domain.ErrInvalidMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs?mode=bogus", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHandler_GetByID(t *testing.T) {
	svc := new(servicemock.MockRunService)
	h := handler.NewRunHandler(svc, nil)
	id := uuid.New()

	svc.On("Get", mock.Anything, id).Return(&service.RunDetail{
		Run:        domain.Run{ID: id, Mode: domain.ModeHumanize, Result: json.RawMessage(`{}`)},
		ArchiveURL: "https://s3.example.com/signed",
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"archive_url":"https://s3.example.com/signed"`)
}

func TestRunHandler_GetByID_Errors(t *testing.T) {
	svc := new(servicemock.MockRunService)
	h := handler.NewRunHandler(svc, nil)
	missing := uuid.New()
	svc.On("Get", mock.Anything, missing).Return(nil, domain.ErrRunNotFound)

	tests := []struct {
		id     string
		status int
	}{
		{"not-a-uuid", http.StatusBadRequest},
		{missing.String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+tt.id, http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: tt.id}}

		h.GetByID(c)

		assert.Equal(t, tt.status, w.Code, tt.id)
	}
}
