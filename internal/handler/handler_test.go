package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunrag-go/internal/model"
)

// fakeDocumentService 是 DocumentService 的测试替身。
type fakeDocumentService struct {
	docs      []model.Document
	ingestErr error
	deleteErr error
	removed   []string
}

func (f *fakeDocumentService) List(_ context.Context) ([]model.Document, error) {
	return f.docs, nil
}

func (f *fakeDocumentService) Ingest(_ context.Context, filePath, originalName string) (model.Document, error) {
	if f.ingestErr != nil {
		return model.Document{}, f.ingestErr
	}
	doc := model.Document{ID: "new-doc", Name: originalName, SourcePath: filePath, ChunkCount: 1}
	f.docs = append(f.docs, doc)
	return doc, nil
}

func (f *fakeDocumentService) Delete(_ context.Context, id string) error {
	return f.deleteErr
}

func (f *fakeDocumentService) Reindex(_ context.Context) ([]model.Document, error) {
	return f.docs, nil
}

func (f *fakeDocumentService) CleanupOrphanedFiles(_ context.Context) ([]string, error) {
	return f.removed, nil
}

// fakeChatService 回显固定应答。
type fakeChatService struct {
	lastReq model.ChatRequest
	resp    model.ChatResponse
	err     error
}

func (f *fakeChatService) Chat(_ context.Context, req model.ChatRequest) (model.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return model.ChatResponse{}, f.err
	}
	return f.resp, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestChatHandler_Success(t *testing.T) {
	svc := &fakeChatService{resp: model.ChatResponse{Text: "pong", ContextUsed: true}}
	r := newRouter()
	r.POST("/api/chat", NewChatHandler(svc).Chat)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"message":"ping","provider":"gemini","model":"g"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := envelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pong", data["response"])
	assert.Equal(t, true, data["contextUsed"])
	assert.Equal(t, "ping", svc.lastReq.Message)
}

func TestChatHandler_ValidationError(t *testing.T) {
	svc := &fakeChatService{err: model.NewValidationError("message is required")}
	r := newRouter()
	r.POST("/api/chat", NewChatHandler(svc).Chat)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"provider":"gemini","model":"g"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "message is required")
}

func TestChatHandler_MalformedBody(t *testing.T) {
	r := newRouter()
	r.POST("/api/chat", NewChatHandler(&fakeChatService{}).Chat)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_List(t *testing.T) {
	svc := &fakeDocumentService{docs: []model.Document{{ID: "d1", Name: "a.txt"}}}
	r := newRouter()
	r.GET("/api/documents", NewDocumentHandler(svc, t.TempDir()).List)

	w := doJSON(t, r, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := envelope(t, w)
	docs := body["data"].([]interface{})
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].(map[string]interface{})["id"])
}

func TestDocumentHandler_Upload(t *testing.T) {
	uploadDir := t.TempDir()
	svc := &fakeDocumentService{}
	r := newRouter()
	r.POST("/api/upload", NewDocumentHandler(svc, uploadDir).Upload)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("First sentence. Second sentence."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := envelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "notes.txt", data["name"])

	// 落盘文件名形如 <毫秒时间戳>-notes.txt
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "-notes.txt"))
}

func TestDocumentHandler_UploadMissingFile(t *testing.T) {
	r := newRouter()
	r.POST("/api/upload", NewDocumentHandler(&fakeDocumentService{}, t.TempDir()).Upload)

	w := doJSON(t, r, http.MethodPost, "/api/upload", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_UploadIngestFailureRemovesFile(t *testing.T) {
	uploadDir := t.TempDir()
	svc := &fakeDocumentService{ingestErr: &model.UnsupportedFormatError{Ext: ".exe"}}
	r := newRouter()
	r.POST("/api/upload", NewDocumentHandler(svc, uploadDir).Upload)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", "tool.exe")
	require.NoError(t, err)
	_, err = part.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "失败的上传不应留下文件")
}

func TestDocumentHandler_DeleteNotFound(t *testing.T) {
	svc := &fakeDocumentService{deleteErr: model.ErrDocumentNotFound}
	r := newRouter()
	r.DELETE("/api/documents/:id", NewDocumentHandler(svc, t.TempDir()).Delete)

	w := doJSON(t, r, http.MethodDelete, "/api/documents/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Cleanup(t *testing.T) {
	svc := &fakeDocumentService{removed: []string{"1-orphan.txt"}}
	r := newRouter()
	r.POST("/api/cleanup", NewDocumentHandler(svc, t.TempDir()).Cleanup)

	w := doJSON(t, r, http.MethodPost, "/api/cleanup", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := envelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["count"])
}

func TestSettingsHandler_Models(t *testing.T) {
	r := newRouter()
	r.GET("/api/models", NewSettingsHandler(nil).Models)

	w := doJSON(t, r, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := envelope(t, w)
	catalog := body["data"].(map[string]interface{})
	for _, provider := range []string{"gemini", "openrouter", "huggingface", "mistral", "cohere", "nvidia", "chutes", "requesty"} {
		assert.Contains(t, catalog, provider)
	}
}
