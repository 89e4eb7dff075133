package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixinha-dev/caixinha/pkg/config"
	"github.com/caixinha-dev/caixinha/pkg/importer"
	"github.com/caixinha-dev/caixinha/pkg/models"
)

type memoryStore struct {
	created      int
	fingerprints map[string]struct{}
}

func (m *memoryStore) ExistsFingerprint(_ context.Context, userID, fp string) (bool, error) {
	_, ok := m.fingerprints[userID+"|"+fp]
	return ok, nil
}

func (m *memoryStore) CreateTransaction(_ context.Context, tx *models.Transaction) (string, error) {
	m.created++
	m.fingerprints[tx.UserID+"|"+tx.Fingerprint] = struct{}{}
	return fmt.Sprintf("tx-%d", m.created), nil
}

type memoryLookup struct{}

func (memoryLookup) CategoryExists(_ context.Context, id, _ string) (bool, error) {
	return id == "cat-1", nil
}

func (memoryLookup) ResponsibleExists(_ context.Context, id, _ string) (bool, error) {
	return id == "resp-1", nil
}

func (memoryLookup) SourceExists(_ context.Context, id, _ string) (bool, error) {
	return id == "src-1", nil
}

func newTestServer() (*Server, *memoryStore) {
	st := &memoryStore{fingerprints: make(map[string]struct{})}
	imp := importer.New(st, memoryLookup{}, log.Default())
	return New(&config.Config{}, imp, log.Default()), st
}

func multipartBody(t *testing.T, filename string, file []byte, request string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("statement", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	if request != "" {
		require.NoError(t, w.WriteField("request", request))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validRequestJSON() string {
	req := models.ImportRequest{
		UserID:     "user-1",
		CategoryID: "cat-1",
		FileType:   models.FileTypeCSV,
		Strategy:   models.DuplicateSkip,
		CSV: models.CSVOptions{
			Delimiter:         ";",
			HasHeader:         true,
			DateColumn:        "date",
			DescriptionColumn: "description",
			AmountColumn:      "amount",
			Locale:            "pt-BR",
		},
	}
	raw, _ := json.Marshal(req)
	return string(raw)
}

var statementCSV = []byte("date;description;amount\n2024-01-05;Supermarket;-125,75\n2024-01-06;Freelance Payment;850.50\n")

func TestHandleImport_Success(t *testing.T) {
	srv, st := newTestServer()
	body, contentType := multipartBody(t, "extrato.csv", statementCSV, validRequestJSON())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalEntries)
	assert.Equal(t, 2, resp.Created)
	assert.Empty(t, resp.Issues)
	assert.Equal(t, 2, st.created)
}

func TestHandleImport_ReimportSkips(t *testing.T) {
	srv, st := newTestServer()

	for i := 0; i < 2; i++ {
		body, contentType := multipartBody(t, "extrato.csv", statementCSV, validRequestJSON())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/import", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.ImportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		if i == 0 {
			assert.Equal(t, 2, resp.Created)
		} else {
			assert.Zero(t, resp.Created)
			assert.Equal(t, 2, resp.Duplicates)
			assert.Len(t, resp.Issues, 2)
		}
	}
	assert.Equal(t, 2, st.created)
}

func TestHandleImport_FormatError(t *testing.T) {
	srv, _ := newTestServer()

	raw := validRequestJSON()
	var reqModel models.ImportRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &reqModel))
	reqModel.FileType = models.FileTypeOFX
	rawOFX, _ := json.Marshal(reqModel)

	body, contentType := multipartBody(t, "extrato.ofx", []byte("not an ofx file"), string(rawOFX))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "FORMAT_ERROR", errResp["code"])
}

func TestHandleImport_InvalidAllocation(t *testing.T) {
	srv, st := newTestServer()

	var reqModel models.ImportRequest
	require.NoError(t, json.Unmarshal([]byte(validRequestJSON()), &reqModel))
	reqModel.Allocations = []models.Allocation{
		{ResponsibleID: "resp-1", Percentage: mustDecimal("70")},
	}
	raw, _ := json.Marshal(reqModel)

	body, contentType := multipartBody(t, "extrato.csv", statementCSV, string(raw))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_ALLOCATION", errResp["code"])
	assert.Zero(t, st.created)
}

func TestHandleImport_MissingParts(t *testing.T) {
	srv, _ := newTestServer()

	// No statement file.
	body, contentType := multipartBody(t, "", nil, validRequestJSON())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No request part.
	body, contentType = multipartBody(t, "extrato.csv", statementCSV, "")
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleImport_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/import", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
