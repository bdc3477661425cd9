package cleanup

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmiclean/database"
)

const testMMILog = "[9:45:14 AM]+4,OK,IMG_0012.jpg\n" +
	"[9:45:30 AM]insert into T VALUES('2025-11-06 09:45:30','L','','P123')\n"

const testTableCSV = "ID,DATE,LOTID,PSA_TAPE_PIC,POWER_BOARD_SN,POWER_BOARD_SN_PIC,POWER_BOARD_PRS,POWER_BOARD_PRS_PIC,POWER_BOARD_PSA_PIC,BATTERY_SN,BATTERY_SN_PIC,BATTERY_PRS,BATTERY_PRS_PIC,BATTERY_PSA_PIC,TEMP,HUMIDITY\n" +
	"1,2025-11-06 09:45:30,L,,P123,,,,,,,,,,23.5,45\n" +
	"2,2025-11-06 09:46:00,L,tape.jpg,P124,,,,,B456,,,,,23.5,45\n"

func openTestDataset(t *testing.T) *database.Dataset {
	t.Helper()
	ds, err := database.Open()
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func multipartUpload(t *testing.T, url, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func uploadBoth(t *testing.T, ds *database.Dataset) {
	t.Helper()
	rec := httptest.NewRecorder()
	UploadMMIHandler(ds)(rec, multipartUpload(t, "/api/cleanup/upload-mmi", "run.log", testMMILog))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	UploadTableHandler(ds)(rec, multipartUpload(t, "/api/cleanup/upload-sql", "export.csv", testTableCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUploadMMIHandler(t *testing.T) {
	ds := openTestDataset(t)
	rec := httptest.NewRecorder()
	UploadMMIHandler(ds)(rec, multipartUpload(t, "/api/cleanup/upload-mmi", "run.log", testMMILog))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "run.log", body["filename"])
	assert.EqualValues(t, 2, body["totalEvents"])
	assert.Len(t, ds.MMIEvents, 2)
	assert.Equal(t, "run.log", ds.MMIFilename)
}

func TestUploadTableHandler(t *testing.T) {
	ds := openTestDataset(t)
	rec := httptest.NewRecorder()
	UploadTableHandler(ds)(rec, multipartUpload(t, "/api/cleanup/upload-sql", "export.csv", testTableCSV))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["totalRows"])

	records, err := database.LoadRecords(ds.DB)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID())
}

func TestAnalyzeHandlerRequiresUploads(t *testing.T) {
	ds := openTestDataset(t)
	rec := httptest.NewRecorder()
	AnalyzeHandler(ds)(rec, httptest.NewRequest(http.MethodPost, "/api/cleanup/analyze", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No MMI log uploaded")
}

func TestAnalyzePipeline(t *testing.T) {
	ds := openTestDataset(t)
	uploadBoth(t, ds)

	rec := httptest.NewRecorder()
	AnalyzeHandler(ds)(rec, httptest.NewRequest(http.MethodPost, "/api/cleanup/analyze", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	// Row 1 is missing its PSA tape picture and gets a fix proposal.
	assert.EqualValues(t, 1, body["totalChanges"])

	list, err := database.ListChanges(ds.DB, "", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "missing_psa_1", list[0].ID)
}

func TestUploadInvalidatesChanges(t *testing.T) {
	ds := openTestDataset(t)
	uploadBoth(t, ds)

	rec := httptest.NewRecorder()
	AnalyzeHandler(ds)(rec, httptest.NewRequest(http.MethodPost, "/api/cleanup/analyze", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// A fresh upload clears the stale ledger.
	rec = httptest.NewRecorder()
	UploadMMIHandler(ds)(rec, multipartUpload(t, "/api/cleanup/upload-mmi", "run2.log", testMMILog))
	require.Equal(t, http.StatusOK, rec.Code)

	stats, err := database.CountChanges(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestExportTableAppliesApprovedChanges(t *testing.T) {
	ds := openTestDataset(t)
	uploadBoth(t, ds)

	rec := httptest.NewRecorder()
	AnalyzeHandler(ds)(rec, httptest.NewRequest(http.MethodPost, "/api/cleanup/analyze", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := database.SetChangeStatus(ds.DB, "missing_psa_1", "approved")
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	ExportTableHandler(ds)(rec, httptest.NewRequest(http.MethodGet, "/api/cleanup/export-sql", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "export_cleaned.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3) // header plus both rows
	assert.Contains(t, lines[1], "IMG_0012.jpg")
}

func TestExportMMIHandler(t *testing.T) {
	ds := openTestDataset(t)
	uploadBoth(t, ds)

	rec := httptest.NewRecorder()
	ExportMMIHandler(ds)(rec, httptest.NewRequest(http.MethodGet, "/api/cleanup/export-mmi", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	// Nothing approved: the export is the original log.
	assert.Equal(t, testMMILog, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "run_cleaned.log")
}

func TestStatsHandler(t *testing.T) {
	ds := openTestDataset(t)
	uploadBoth(t, ds)

	rec := httptest.NewRecorder()
	StatsHandler(ds)(rec, httptest.NewRequest(http.MethodGet, "/api/cleanup/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["tableTotalRows"])
	assert.EqualValues(t, 2, body["mmiTotalEvents"])
}

func TestResetHandler(t *testing.T) {
	ds := openTestDataset(t)
	uploadBoth(t, ds)

	rec := httptest.NewRecorder()
	ResetHandler(ds)(rec, httptest.NewRequest(http.MethodPost, "/api/cleanup/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, ds.MMIEvents)
	n, err := database.CountRecords(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestResetHandlerRequiresPost(t *testing.T) {
	ds := openTestDataset(t)
	rec := httptest.NewRecorder()
	ResetHandler(ds)(rec, httptest.NewRequest(http.MethodGet, "/api/cleanup/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
