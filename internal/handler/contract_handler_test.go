package handler_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"contractlens/internal/config"
	"contractlens/internal/domain"
	"contractlens/internal/handler"
	"contractlens/internal/service"
	"contractlens/mocks/servicemock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLimits = config.LimitsConfig{MaxUploadMB: 1}

func newContractHandler() (*handler.ContractHandler, *servicemock.MockContractService) {
	svc := new(servicemock.MockContractService)
	return handler.NewContractHandler(svc, testLimits, nil), svc
}

func jsonRequest(t *testing.T, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var sampleFindings = []domain.Finding{
	{ClauseText: "Supplier may terminate at will.", RiskScore: 9, Explanation: "One-sided.", Recommendation: "Add notice period."},
	{ClauseText: "Fees may change monthly.", RiskScore: 5, Explanation: "Uncapped.", Recommendation: "Cap increases."},
}

func TestContractHandler_Analyze_JSON(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Analyze", mock.Anything, service.ContractInput{Text: "contract body"}).
		Return(&domain.AnalysisResult{Analysis: sampleFindings}, nil)

	c, w := jsonRequest(t, "/api/v1/contracts/analyze", map[string]string{"text": "contract body"})
	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["analysis"], 2)
	assert.NotContains(t, data, "error")
	svc.AssertExpectations(t)
}

func TestContractHandler_Analyze_URL(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Analyze", mock.Anything, service.ContractInput{URL: "https://example.com/tos"}).
		Return(&domain.AnalysisResult{}, nil)

	c, w := jsonRequest(t, "/api/v1/contracts/analyze", map[string]string{"url": "https://example.com/tos"})
	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, []interface{}{}, resp.Data.(map[string]interface{})["analysis"])
}

func TestContractHandler_Analyze_Multipart(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Analyze", mock.Anything, mock.MatchedBy(func(in service.ContractInput) bool {
		return in.Filename == "msa.txt" && string(in.File) == "the whole agreement"
	})).Return(&domain.AnalysisResult{Analysis: sampleFindings}, nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "msa.txt")
	_, _ = part.Write([]byte("the whole agreement"))
	_ = writer.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/contracts/analyze", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestContractHandler_Analyze_CSV(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Analyze", mock.Anything, mock.Anything).
		Return(&domain.AnalysisResult{Analysis: sampleFindings}, nil)

	c, w := jsonRequest(t, "/api/v1/contracts/analyze?format=csv", map[string]string{"text": "contract body"})
	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="contract_analysis_`)

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(w.Body.String(), "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Critical", records[1][2])
}

func TestContractHandler_Analyze_XLSX(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Analyze", mock.Anything, mock.Anything).
		Return(&domain.AnalysisResult{Analysis: sampleFindings}, nil)

	c, w := jsonRequest(t, "/api/v1/contracts/analyze?format=xlsx", map[string]string{"text": "contract body"})
	h.Analyze(c)

	assert.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Findings")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestContractHandler_Analyze_InvalidFormat(t *testing.T) {
	h, svc := newContractHandler()

	c, w := jsonRequest(t, "/api/v1/contracts/analyze?format=pdf", map[string]string{"text": "contract body"})
	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", decodeResponse(t, w).Error.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestContractHandler_Analyze_MalformedJSON(t *testing.T) {
	h, _ := newContractHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/contracts/analyze", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeResponse(t, w).Error.Code)
}

func TestContractHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNoInput, http.StatusBadRequest, "NO_INPUT"},
		{fmt.Errorf("%w: need at least 50 characters, got 12", domain.ErrTextTooShort), http.StatusBadRequest, "TEXT_TOO_SHORT"},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrSourceUnavailable, http.StatusUnprocessableEntity, "SOURCE_UNAVAILABLE"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h, svc := newContractHandler()
			svc.On("Humanize", mock.Anything, mock.Anything).Return(nil, tt.err)

			c, w := jsonRequest(t, "/api/v1/contracts/humanize", map[string]string{"text": "short"})
			h.Humanize(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestContractHandler_TextTooShortMessage(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: need at least 50 characters, got 12", domain.ErrTextTooShort))

	c, w := jsonRequest(t, "/api/v1/contracts/analyze", map[string]string{"text": "Too short..."})
	h.Analyze(c)

	assert.Contains(t, decodeResponse(t, w).Error.Message, "at least 50")
}

func TestContractHandler_Humanize_AllSegmentsFailed(t *testing.T) {
	h, svc := newContractHandler()
	failed := &domain.HumanizeResult{
		Warnings: []string{"segment 1: timeout: deadline exceeded"},
		Error:    "all segments failed (1 segments)",
	}
	svc.On("Humanize", mock.Anything, mock.Anything).
		Return(failed, fmt.Errorf("%w (1 segments)", domain.ErrAllSegmentsFailed))

	c, w := jsonRequest(t, "/api/v1/contracts/humanize", map[string]string{"text": "Payment is due in 30 days."})
	h.Humanize(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "ALL_SEGMENTS_FAILED", resp.Error.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "all segments failed (1 segments)", data["error"])
	assert.Len(t, data["warnings"], 1)
	assert.NotContains(t, data, "humanized_text")
}

func TestContractHandler_Humanize_Success(t *testing.T) {
	h, svc := newContractHandler()
	svc.On("Humanize", mock.Anything, service.ContractInput{Text: "Payment is due in 30 days."}).
		Return(&domain.HumanizeResult{Simplification: domain.Simplification{
			OriginalLength:   6,
			SimplifiedLength: 4,
			HumanizedText:    "Pay within 30 days.",
			KeyPoints:        []string{"30 day payment"},
		}}, nil)

	c, w := jsonRequest(t, "/api/v1/contracts/humanize", map[string]string{"text": "Payment is due in 30 days."})
	h.Humanize(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "Pay within 30 days.", data["humanized_text"])
	assert.EqualValues(t, 6, data["original_length"])
}
