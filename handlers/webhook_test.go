package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookline/models"
	"bookline/services/agent"

	"github.com/gin-gonic/gin"
)

type fakeInstanceRepo struct {
	byPath map[string]*models.Instance
}

func (r *fakeInstanceRepo) Create(inst *models.Instance) error          { return nil }
func (r *fakeInstanceRepo) GetByID(id string) (*models.Instance, error) { return nil, errors.New("not found") }
func (r *fakeInstanceRepo) GetAll() ([]models.Instance, error)          { return nil, nil }
func (r *fakeInstanceRepo) Update(inst *models.Instance) error          { return nil }
func (r *fakeInstanceRepo) Delete(id string) error                      { return nil }

func (r *fakeInstanceRepo) GetByWebhookPath(path string) (*models.Instance, error) {
	inst, ok := r.byPath[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return inst, nil
}

type fakeAgent struct {
	reply string
	err   error
	calls int
}

func (a *fakeAgent) HandleMessage(ctx context.Context, inst *models.Instance, sessionID, message string) (string, error) {
	a.calls++
	return a.reply, a.err
}

func newWebhookRouter(agentSvc agent.AgentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := &fakeInstanceRepo{byPath: map[string]*models.Instance{
		"acme": {ID: "inst-1", BusinessName: "Acme Clinic", WebhookPath: "acme", Active: true},
	}}
	r := gin.New()
	r.POST("/webhook/:path", NewWebhookHandler(repo, agentSvc).Handle)
	return r
}

func postWebhook(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookUnknownPath(t *testing.T) {
	r := newWebhookRouter(&fakeAgent{reply: "hi"})

	w := postWebhook(t, r, "nope", `{"sessionId":"s1","message":"hello"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	r := newWebhookRouter(&fakeAgent{reply: "hi"})

	for _, body := range []string{
		`{not json`,
		`{"sessionId":"","message":"hello"}`,
		`{"sessionId":"s1","message":"   "}`,
		`{}`,
	} {
		w := postWebhook(t, r, "acme", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestWebhookSuccess(t *testing.T) {
	fake := &fakeAgent{reply: "We have openings at 10:00."}
	r := newWebhookRouter(fake)

	w := postWebhook(t, r, "acme", `{"sessionId":"s1","message":"any slots?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if fake.calls != 1 {
		t.Errorf("agent called %d times, want 1", fake.calls)
	}

	var resp struct {
		Response  string `json:"response"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Response != "We have openings at 10:00." {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.SessionID != "s1" {
		t.Errorf("sessionId = %q, want s1", resp.SessionID)
	}
}

func TestWebhookSessionBusy(t *testing.T) {
	fake := &fakeAgent{err: &agent.ConcurrencyError{SessionID: "s1"}}
	r := newWebhookRouter(fake)

	w := postWebhook(t, r, "acme", `{"sessionId":"s1","message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != busyReply {
		t.Errorf("response = %q, want the busy reply", resp.Response)
	}
}

func TestWebhookInternalFailureStaysSafe(t *testing.T) {
	fake := &fakeAgent{err: errors.New("mongo: connection reset")}
	r := newWebhookRouter(fake)

	w := postWebhook(t, r, "acme", `{"sessionId":"s1","message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "mongo") {
		t.Error("internal error detail leaked to the guest")
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != unknownReply {
		t.Errorf("response = %q, want the generic failure reply", resp.Response)
	}
}
