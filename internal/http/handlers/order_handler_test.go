// README: Handler tests for the order and session endpoints.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bvetra/internal/ai"
	bvhttp "bvetra/internal/http"
	"bvetra/internal/modules/chat"
	"bvetra/internal/modules/dispatch"
	"bvetra/internal/modules/draft"
	"bvetra/internal/modules/quota"
	"bvetra/internal/types"
)

// stubDispatcher records dispatch calls and returns a canned submission.
type stubDispatcher struct {
	calls   int
	lastD   draft.Draft
	lastLen int
	ctxErr  error
}

func (s *stubDispatcher) Dispatch(ctx context.Context, d draft.Draft, history []types.Turn) dispatch.Submission {
	s.calls++
	s.lastD = d
	s.lastLen = len(history)
	s.ctxErr = ctx.Err()
	return dispatch.Submission{
		Order:     d,
		Results:   []dispatch.Result{{Channel: "telegram", Status: dispatch.StatusOK, Detail: "message_id=1"}},
		CreatedAt: time.Now(),
	}
}

// stubProvider replies with a fixed text delivered as a single chunk.
type stubProvider struct {
	reply string
}

type oneChunk struct {
	text string
	done bool
}

func (s *oneChunk) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *oneChunk) Close() {}

func (p *stubProvider) Reply(_ context.Context, _ []types.Turn, _ string) (string, error) {
	return p.reply, nil
}

func (p *stubProvider) StreamReply(_ context.Context, _ []types.Turn, _ string) (ai.ChunkSource, error) {
	return &oneChunk{text: p.reply}, nil
}

func (p *stubProvider) Close() {}

func buildTestRouter(provider ai.Provider, disp *stubDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := chat.NewService(chat.NewMemoryStore(), provider, disp, nil)
	return bvhttp.NewRouter(bvhttp.RouterDeps{Chat: svc, Dispatcher: disp})
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrderCreate_MissingPhone(t *testing.T) {
	disp := &stubDispatcher{}
	r := buildTestRouter(nil, disp)

	w := doRequest(r, http.MethodPost, "/api/order", map[string]any{
		"order": map[string]any{"name": "Иван"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp struct {
		Field string `json:"field"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Field != "phone" {
		t.Errorf("field = %q, want phone", resp.Field)
	}
	if disp.calls != 0 {
		t.Errorf("dispatcher called %d times before validation passed", disp.calls)
	}
}

func TestOrderCreate_OK(t *testing.T) {
	disp := &stubDispatcher{}
	r := buildTestRouter(nil, disp)

	w := doRequest(r, http.MethodPost, "/api/order", map[string]any{
		"order": map[string]any{
			"name":     "Иван",
			"phone":    "+7 912 345 67 89",
			"pickup":   "аэропорт",
			"dropoff":  "центр",
			"carClass": "Комфорт",
		},
		"chatHistory": []map[string]string{
			{"role": "user", "content": "нужен трансфер"},
			{"role": "assistant", "content": "куда поедем?"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		OK      bool                       `json:"ok"`
		Results map[string]dispatch.Result `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.OK {
		t.Error("ok = false, want true")
	}
	if resp.Results["telegram"].Status != dispatch.StatusOK {
		t.Errorf("telegram status = %q", resp.Results["telegram"].Status)
	}
	if disp.calls != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", disp.calls)
	}
	if disp.lastD.Phone != "+7 912 345-67-89" {
		t.Errorf("dispatched phone = %q, want normalized form", disp.lastD.Phone)
	}
	if disp.lastD.CarClass != draft.CarClassComfort {
		t.Errorf("car class = %q, want comfort", disp.lastD.CarClass)
	}
	if disp.lastLen != 2 {
		t.Errorf("history length = %d, want 2", disp.lastLen)
	}
}

func TestOrderCreate_ClientDisconnectDoesNotCancelDispatch(t *testing.T) {
	disp := &stubDispatcher{}
	r := buildTestRouter(nil, disp)

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]any{
		"order": map[string]any{"name": "Иван", "phone": "+79123456789"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/order", &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if disp.calls != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", disp.calls)
	}
	if disp.ctxErr != nil {
		t.Errorf("dispatch context already cancelled at send time: %v", disp.ctxErr)
	}
}

func TestOrderCreate_UnknownCarClass(t *testing.T) {
	r := buildTestRouter(nil, &stubDispatcher{})

	w := doRequest(r, http.MethodPost, "/api/order", map[string]any{
		"order": map[string]any{"name": "Иван", "phone": "+79123456789", "carClass": "спорткар"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSessionDraftLifecycle(t *testing.T) {
	disp := &stubDispatcher{}
	r := buildTestRouter(nil, disp)

	w := doRequest(r, http.MethodPatch, "/api/sessions/s1/draft", map[string]any{
		"name":  "Анна",
		"phone": "8 (912) 345-67-89",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", w.Code, w.Body.String())
	}

	if w = doRequest(r, http.MethodPost, "/api/sessions/s1/confirm", nil); w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body = %s", w.Code, w.Body.String())
	}

	if w = doRequest(r, http.MethodPost, "/api/sessions/s1/submit", nil); w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", w.Code, w.Body.String())
	}
	if disp.calls != 1 {
		t.Fatalf("dispatcher calls = %d, want 1", disp.calls)
	}

	// submission resets the draft for the next order
	w = doRequest(r, http.MethodGet, "/api/sessions/s1/draft", nil)
	var resp struct {
		Draft draft.Draft `json:"draft"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Draft.State != draft.StateEmpty {
		t.Errorf("draft state after submit = %q, want empty", resp.Draft.State)
	}
}

func TestSubmit_WithoutConfirmationConflicts(t *testing.T) {
	r := buildTestRouter(nil, &stubDispatcher{})

	w := doRequest(r, http.MethodPatch, "/api/sessions/s2/draft", map[string]any{
		"name":  "Анна",
		"phone": "+79123456789",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d", w.Code)
	}
	if w = doRequest(r, http.MethodPost, "/api/sessions/s2/submit", nil); w.Code != http.StatusConflict {
		t.Fatalf("submit status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestChatSend_NoAssistantConfigured(t *testing.T) {
	r := buildTestRouter(nil, &stubDispatcher{})

	w := doRequest(r, http.MethodPost, "/api/chat", map[string]any{"message": "привет"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestChatStream_WritesPlainText(t *testing.T) {
	r := buildTestRouter(&stubProvider{reply: "Здравствуйте! Куда поедем?"}, &stubDispatcher{})

	w := doRequest(r, http.MethodPost, "/api/chat/stream", map[string]any{"message": "привет"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "Здравствуйте! Куда поедем?" {
		t.Errorf("body = %q", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

// stubQuota returns a fixed verdict for every session.
type stubQuota struct {
	err error
}

func (s *stubQuota) Use(context.Context, string) error { return s.err }

func TestChatSend_QuotaExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	disp := &stubDispatcher{}
	svc := chat.NewService(chat.NewMemoryStore(), &stubProvider{reply: "ок"}, disp, nil)
	r := bvhttp.NewRouter(bvhttp.RouterDeps{
		Chat:       svc,
		Dispatcher: disp,
		Quota:      &stubQuota{err: quota.ErrExhausted},
	})

	w := doRequest(r, http.MethodPost, "/api/chat", map[string]any{"message": "привет"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestSessionClear(t *testing.T) {
	r := buildTestRouter(&stubProvider{reply: "ок"}, &stubDispatcher{})

	if w := doRequest(r, http.MethodPost, "/api/chat", map[string]any{"sessionId": "s3", "message": "привет"}); w.Code != http.StatusOK {
		t.Fatalf("chat status = %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, "/api/sessions/s3", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
	w := doRequest(r, http.MethodGet, "/api/sessions/s3/history", nil)
	var resp struct {
		Turns []types.Turn `json:"turns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Turns) != 0 {
		t.Errorf("turns after clear = %d, want 0", len(resp.Turns))
	}
}
