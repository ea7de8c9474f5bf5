package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akowalczyk/voxtask/internal/core"
	"github.com/akowalczyk/voxtask/internal/integration"
	"github.com/akowalczyk/voxtask/pkg/models"
)

type stubCreator struct {
	requests []core.TaskRequest
	err      error
}

func (s *stubCreator) CreateTask(_ context.Context, req core.TaskRequest) (models.TaskRecord, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return models.TaskRecord{"id": "9001"}, nil
}

type stubLister struct {
	projects []models.Project
	err      error
}

func (s *stubLister) ListProjects(context.Context) ([]models.Project, error) {
	return s.projects, s.err
}

type stubTranscriber struct {
	transcript string
	language   string
	err        error
}

func (s *stubTranscriber) Transcribe(_ context.Context, audio io.Reader, _, language string) (string, error) {
	io.Copy(io.Discard, audio)
	s.language = language
	return s.transcript, s.err
}

type stubSuggester struct {
	suggestion *models.Suggestion
	err        error
}

func (s *stubSuggester) GenerateSuggestion(context.Context, integration.SuggestionRequest) (*models.Suggestion, error) {
	return s.suggestion, s.err
}

type testEnv struct {
	server      *Server
	handler     http.Handler
	creator     *stubCreator
	lister      *stubLister
	transcriber *stubTranscriber
	suggester   *stubSuggester
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}

	accounts := map[string]*models.AccountSettings{
		"anna": {
			Username:         "anna",
			PasswordHash:     string(hash),
			WhisperLanguage:  "pl",
			TodoPrompt:       models.DefaultTodoPrompt,
			OpenAITextModel:  "gpt-4o-mini",
			TodoistProjectID: "2203",
			ProjectTypes:     models.StringList{"Work", "Home"},
			SubtaskDeadline:  models.SubtaskSameDate,
		},
	}

	env := &testEnv{
		creator:     &stubCreator{},
		lister:      &stubLister{},
		transcriber: &stubTranscriber{transcript: "kup mleko"},
		suggester: &stubSuggester{suggestion: &models.Suggestion{
			Project:     "Home",
			TaskSummary: "Groceries",
			Tasks:       []string{"milk", "bread"},
			Priority:    2,
		}},
	}

	cfg := &core.AppConfig{SessionTTL: time.Hour}
	env.server = New(cfg, accounts, func(*models.AccountSettings) Clients {
		return Clients{
			Creator:     env.creator,
			Projects:    env.lister,
			Transcriber: env.transcriber,
			Suggester:   env.suggester,
		}
	}, nil)
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", "", loginRequest{Username: "anna", Password: "hunter2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body)
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return resp.Token
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", "", loginRequest{Username: "anna", Password: "hunter2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" {
		t.Error("response has no token")
	}
	// The account prefers Polish, so the session starts there.
	if resp.Language.Key != "PL" {
		t.Errorf("language key = %q, want PL", resp.Language.Key)
	}
	if len(resp.LanguageOptions) != 3 {
		t.Errorf("expected 3 language options, got %d", len(resp.LanguageOptions))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	for _, req := range []loginRequest{
		{Username: "anna", Password: "wrong"},
		{Username: "nobody", Password: "hunter2"},
	} {
		rec := env.do(t, http.MethodPost, "/login", "", req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login %q/%q status = %d, want 401", req.Username, req.Password, rec.Code)
		}
	}
}

func TestStateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/state", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/state", "bogus", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token status = %d, want 401", rec.Code)
	}
}

func TestStateAndLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/state", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d", rec.Code)
	}
	var state stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.Username != "anna" || state.DefaultProjectID != "2203" {
		t.Errorf("state = %+v", state)
	}

	if rec := env.do(t, http.MethodPost, "/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/state", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("state after logout = %d, want 401", rec.Code)
	}
}

func TestLanguageUpdate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/language", token, languageRequest{Language: "ua"})
	if rec.Code != http.StatusOK {
		t.Fatalf("language status = %d: %s", rec.Code, rec.Body)
	}

	var state stateResponse
	stateRec := env.do(t, http.MethodGet, "/state", token, nil)
	if err := json.Unmarshal(stateRec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.Language.Key != "UA" || state.Language.Code != "uk" {
		t.Errorf("language after update = %+v", state.Language)
	}

	if rec := env.do(t, http.MethodPost, "/language", token, languageRequest{Language: "FR"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported language status = %d, want 400", rec.Code)
	}
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t)
	env.lister.projects = []models.Project{{ID: "1", Name: "Work"}}
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/projects", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("projects status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"Work"`) {
		t.Errorf("projects body = %s", rec.Body)
	}
}

func TestTranscribe(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", "note.webm")
	if err != nil {
		t.Fatalf("building form: %v", err)
	}
	io.WriteString(part, "fake-audio")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/transcribe", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("transcribe status = %d: %s", rec.Code, rec.Body)
	}

	var resp transcribeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Transcript != "kup mleko" {
		t.Errorf("transcript = %q", resp.Transcript)
	}
	if env.transcriber.language != "pl" {
		t.Errorf("transcription language = %q, want pl", env.transcriber.language)
	}
	if !strings.Contains(resp.Content, "!!Task Summary!!: Groceries") {
		t.Errorf("content = %q", resp.Content)
	}

	// The transcript is kept on the session for later inspection.
	var state stateResponse
	stateRec := env.do(t, http.MethodGet, "/state", token, nil)
	if err := json.Unmarshal(stateRec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.Transcript != "kup mleko" {
		t.Errorf("session transcript = %q", state.Transcript)
	}
}

func TestSubmitTodoist(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	content := "!!Task Summary!!: Groceries\n!!Tasks!!\n- milk\n- bread\n"
	rec := env.do(t, http.MethodPost, "/todoist", token, todoistRequest{Content: content})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body)
	}

	// Parent plus two subtasks, all in the account's default project.
	if len(env.creator.requests) != 3 {
		t.Fatalf("expected 3 create calls, got %d", len(env.creator.requests))
	}
	for i, req := range env.creator.requests {
		if req.ProjectID != "2203" {
			t.Errorf("request %d project = %q, want 2203", i, req.ProjectID)
		}
	}
}

func TestSubmitTodoistStructuredOverride(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	// The client already holds a validated structured object; it wins over
	// re-parsing the submitted text.
	content := "!!Task Summary!!: Old plan\n!!Tasks!!\n- milk\n- bread\n"
	rec := env.do(t, http.MethodPost, "/todoist", token, todoistRequest{
		Content: content,
		Structured: models.Payload{
			TaskSummary: "New plan",
			Priority:    3,
			Labels:      []string{"errands"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body)
	}

	if len(env.creator.requests) != 3 {
		t.Fatalf("expected 3 create calls, got %d", len(env.creator.requests))
	}
	parent := env.creator.requests[0]
	if parent.Content != "New plan" {
		t.Errorf("parent content = %q, want the structured summary", parent.Content)
	}
	if parent.Priority != float64(3) && parent.Priority != 3 {
		t.Errorf("parent priority = %v, want 3", parent.Priority)
	}
	if len(parent.Labels) != 1 || parent.Labels[0] != "errands" {
		t.Errorf("parent labels = %v", parent.Labels)
	}
}

func TestSubmitTodoistErrorMapping(t *testing.T) {
	t.Run("validation error is 400", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.login(t)

		rec := env.do(t, http.MethodPost, "/todoist", token, todoistRequest{Content: "   "})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("todoist api error keeps its status", func(t *testing.T) {
		env := newTestEnv(t)
		env.creator.err = &integration.APIError{StatusCode: http.StatusForbidden, Detail: "denied"}
		token := env.login(t)

		rec := env.do(t, http.MethodPost, "/todoist", token, todoistRequest{Content: "!!Task Summary!!: x\n"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("other upstream failure is 502", func(t *testing.T) {
		env := newTestEnv(t)
		env.creator.err = errors.New("connection refused")
		token := env.login(t)

		rec := env.do(t, http.MethodPost, "/todoist", token, todoistRequest{Content: "!!Task Summary!!: x\n"})
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}
