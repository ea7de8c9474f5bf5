// Package server exposes the voice-to-task workflow over HTTP: log in,
// transcribe a recording, review the suggestion, submit it to Todoist.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akowalczyk/voxtask/internal/core"
	"github.com/akowalczyk/voxtask/internal/integration"
	"github.com/akowalczyk/voxtask/pkg/models"
)

// maxAudioUpload caps transcription uploads at 25 MB, the Whisper API limit.
const maxAudioUpload = 25 << 20

// ProjectLister lists the Todoist projects visible to one account.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// Transcriber turns an audio recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

// Suggester turns a transcript into a structured task suggestion.
type Suggester interface {
	GenerateSuggestion(ctx context.Context, req integration.SuggestionRequest) (*models.Suggestion, error)
}

// Clients bundles the per-account upstream clients.
type Clients struct {
	Creator     core.TaskCreator
	Projects    ProjectLister
	Transcriber Transcriber
	Suggester   Suggester
}

// ClientFactory builds upstream clients for one account. Each account holds
// its own API credentials, so clients cannot be shared across accounts.
type ClientFactory func(account *models.AccountSettings) Clients

// Server handles the HTTP API. All state beyond the accounts file lives in
// the in-memory session store.
type Server struct {
	cfg      *core.AppConfig
	accounts map[string]*models.AccountSettings
	sessions *SessionStore
	clients  ClientFactory
	events   core.EventLogger
}

// New creates a Server. events may be nil to disable the audit log.
func New(cfg *core.AppConfig, accounts map[string]*models.AccountSettings, clients ClientFactory, events core.EventLogger) *Server {
	return &Server{
		cfg:      cfg,
		accounts: accounts,
		sessions: NewSessionStore(cfg.SessionTTL),
		clients:  clients,
		events:   events,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /language", s.handleLanguage)
	mux.HandleFunc("GET /projects", s.handleProjects)
	mux.HandleFunc("POST /transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /todoist", s.handleTodoist)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// writeUpstreamError maps a failed upstream call onto a response: validation
// problems are the client's fault, Todoist API errors keep their status, and
// anything else is a bad gateway.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "%s", verr.Msg)
		return
	}
	var apiErr *integration.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.StatusCode, "%s", apiErr.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "%s", err.Error())
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authenticate resolves the request's session and account, or writes a 401.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*Session, *models.AccountSettings, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return nil, nil, false
	}
	session, ok := s.sessions.Get(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired or unknown")
		return nil, nil, false
	}
	account, ok := s.accounts[session.Username]
	if !ok {
		s.sessions.Delete(token)
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return nil, nil, false
	}
	return session, account, true
}

func (s *Server) logEvent(eventType string, data map[string]any) {
	if s.events != nil {
		_ = s.events.LogEvent(eventType, data)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token           string                         `json:"token"`
	Username        string                         `json:"username"`
	Language        languagePayload                `json:"language"`
	LanguageOptions map[string]core.LanguageOption `json:"language_options"`
}

type languagePayload struct {
	Key  string `json:"key"`
	Code string `json:"code"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding login request: %s", err)
		return
	}

	account, ok := s.accounts[req.Username]
	if !ok || !core.CheckPassword(account, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	language := core.EnsureLanguageSelection(account, core.LanguageSelection{})
	session := s.sessions.Create(account.Username, language)

	s.logEvent("session.login", map[string]any{"username": account.Username})

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:           session.Token,
		Username:        session.Username,
		Language:        languagePayload{Key: language.Key, Code: language.Code},
		LanguageOptions: core.LanguageOptions,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.sessions.Delete(token)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type stateResponse struct {
	Username         string                         `json:"username"`
	Language         languagePayload                `json:"language"`
	LanguageOptions  map[string]core.LanguageOption `json:"language_options"`
	DefaultProjectID string                         `json:"default_project_id,omitempty"`
	Transcript       string                         `json:"transcript,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	session, account, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	language := core.EnsureLanguageSelection(account, session.Language)
	writeJSON(w, http.StatusOK, stateResponse{
		Username:         session.Username,
		Language:         languagePayload{Key: language.Key, Code: language.Code},
		LanguageOptions:  core.LanguageOptions,
		DefaultProjectID: account.DefaultProjectID(),
		Transcript:       session.Transcript,
	})
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	session, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding language request: %s", err)
		return
	}

	selection, err := core.UpdateLanguageSelection(req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%s", err)
		return
	}

	s.sessions.Update(session.Token, func(live *Session) {
		live.Language = selection
	})
	s.logEvent("language.changed", map[string]any{
		"username": session.Username,
		"language": selection.Key,
	})

	writeJSON(w, http.StatusOK, languagePayload{Key: selection.Key, Code: selection.Code})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	_, account, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	projects, err := s.clients(account).Projects.ListProjects(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

type transcribeResponse struct {
	Transcript string             `json:"transcript"`
	Suggestion *models.Suggestion `json:"suggestion"`
	Content    string             `json:"content"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	session, account, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUpload)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading audio upload: %s", err)
		return
	}
	defer file.Close()

	language := core.EnsureLanguageSelection(account, session.Language)
	clients := s.clients(account)

	transcript, err := clients.Transcriber.Transcribe(r.Context(), file, header.Filename, language.Code)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	s.sessions.Update(session.Token, func(live *Session) {
		live.Transcript = transcript
	})
	s.logEvent("audio.transcribed", map[string]any{
		"username": session.Username,
		"language": language.Code,
	})

	suggestion, err := clients.Suggester.GenerateSuggestion(r.Context(), integration.SuggestionRequest{
		Transcript:   transcript,
		SystemPrompt: account.TodoPrompt,
		Model:        account.OpenAITextModel,
		ProjectTypes: account.ProjectTypes,
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{
		Transcript: transcript,
		Suggestion: suggestion,
		Content:    core.FormatSuggestion(*suggestion),
	})
}

type todoistRequest struct {
	Content    string         `json:"content"`
	Structured models.Payload `json:"structured"`
	ProjectID  string         `json:"project_id"`
}

func (s *Server) handleTodoist(w http.ResponseWriter, r *http.Request) {
	_, account, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req todoistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding submission request: %s", err)
		return
	}

	coordinator := core.NewCoordinator(s.clients(account).Creator, s.events)
	result, err := coordinator.Submit(r.Context(), core.SubmitRequest{
		Content:    req.Content,
		Structured: req.Structured,
		ProjectID:  strings.TrimSpace(req.ProjectID),
		Account:    account,
	})
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
