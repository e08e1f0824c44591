package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"wordcards/internal/catalog"
	"wordcards/internal/database"
	"wordcards/internal/models"
	"wordcards/internal/repository"
	"wordcards/internal/security"
	"wordcards/internal/service"
)

type testServer struct {
	handler http.Handler
	catalog *catalog.Catalog
}

func newTestServer(t *testing.T, limiter *security.RateLimiter) *testServer {
	t.Helper()

	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(originalOutput) })

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}

	authService := service.NewAuthService(repository.NewAccountRepository(db), security.NewTokenSigner("test-secret", "wordcards-test"), nil, time.Hour)
	progressService := service.NewProgressService(repository.NewProgressRepository(db), cat, time.UTC, 5*time.Second)
	csrf := security.NewCSRFGenerator("test-secret")

	providers := map[string]*OAuthProvider{
		"example": {
			Name:  "example",
			Label: "Example",
			Config: &oauth2.Config{
				ClientID:     "client",
				ClientSecret: "secret",
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://auth.example.com/authorize",
					TokenURL: "https://auth.example.com/token",
				},
			},
			UserInfoURL: "https://auth.example.com/userinfo",
		},
	}

	router := &Router{
		Middleware: NewMiddleware(authService, csrf, limiter),
		Auth:       NewAuthHandler(authService, csrf, providers, "https://cards.example.com"),
		Catalog:    NewCatalogHandler(cat, nil),
		Progress:   NewProgressHandler(progressService),
		Quiz:       NewQuizHandler(service.NewQuizService(cat), progressService),
		DB:         db,
	}
	return &testServer{handler: router.Handler(), catalog: cat}
}

type requestOptions struct {
	token  string
	cookie string
	csrf   string
	body   interface{}
}

func (s *testServer) do(t *testing.T, method, path string, opts requestOptions) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if opts.body != nil {
		raw, err := json.Marshal(opts.body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.cookie != "" {
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: opts.cookie})
	}
	if opts.csrf != "" {
		req.Header.Set(security.CSRFHeader, opts.csrf)
	}

	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(recorder.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return v
}

func (s *testServer) signUp(t *testing.T, email string) tokenResponse {
	t.Helper()

	recorder := s.do(t, http.MethodPost, "/api/auth/signup", requestOptions{body: map[string]string{
		"email":    email,
		"password": "long enough",
		"username": "Learner",
	}})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	return decode[tokenResponse](t, recorder)
}

func TestProgressFlow(t *testing.T) {
	s := newTestServer(t, nil)
	auth := s.signUp(t, "ann@example.com")
	opts := requestOptions{token: auth.Token}

	recorder := s.do(t, http.MethodGet, "/api/progress", opts)
	if recorder.Code != http.StatusOK {
		t.Fatalf("GET /api/progress status = %d", recorder.Code)
	}
	empty := decode[models.AccountProgress](t, recorder)
	if empty.StudiedDays != 0 || empty.TotalWords != 0 || len(empty.Categories) != 0 {
		t.Errorf("new account progress = %+v, want empty", empty)
	}

	for _, wordID := range []string{"1", "2"} {
		recorder = s.do(t, http.MethodPost, "/api/progress/categories/1/words/"+wordID+"/learned", opts)
		if recorder.Code != http.StatusOK {
			t.Fatalf("mark learned status = %d, body = %s", recorder.Code, recorder.Body.String())
		}
	}
	progress := decode[models.AccountProgress](t, recorder)
	if progress.StudiedDays != 1 || progress.TotalWords != 2 {
		t.Errorf("progress = %+v, want 1 day and 2 words", progress)
	}

	recorder = s.do(t, http.MethodGet, "/api/progress/categories", opts)
	summaries := decode[[]models.CategorySummary](t, recorder)
	if len(summaries) != 1 || summaries[0].CatalogWords != 8 || summaries[0].Learned != 2 {
		t.Errorf("summaries = %+v", summaries)
	}

	recorder = s.do(t, http.MethodGet, "/api/progress/categories/1/words/2", opts)
	if recorder.Code != http.StatusOK {
		t.Errorf("GET word status = %d", recorder.Code)
	}
	word := decode[models.WordProgress](t, recorder)
	if !word.Learned || word.ReviewCount != 1 {
		t.Errorf("word = %+v", word)
	}

	recorder = s.do(t, http.MethodGet, "/api/achievements", opts)
	if recorder.Code != http.StatusOK {
		t.Errorf("GET achievements status = %d", recorder.Code)
	}
}

func TestProgressErrors(t *testing.T) {
	s := newTestServer(t, nil)
	auth := s.signUp(t, "ann@example.com")
	opts := requestOptions{token: auth.Token}

	tests := []struct {
		name   string
		method string
		path   string
		opts   requestOptions
		status int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/progress", status: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, path: "/api/progress", opts: requestOptions{token: "nope"}, status: http.StatusUnauthorized},
		{name: "unknown category", method: http.MethodPost, path: "/api/progress/categories/99/words/1/learned", opts: opts, status: http.StatusNotFound},
		{name: "word of other category", method: http.MethodPost, path: "/api/progress/categories/1/words/9/learned", opts: opts, status: http.StatusNotFound},
		{name: "non-numeric id", method: http.MethodPost, path: "/api/progress/categories/abc/words/1/learned", opts: opts, status: http.StatusBadRequest},
		{name: "unstudied category", method: http.MethodGet, path: "/api/progress/categories/2", opts: opts, status: http.StatusNotFound},
		{name: "unstudied word", method: http.MethodGet, path: "/api/progress/categories/2/words/9", opts: opts, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := s.do(t, tt.method, tt.path, tt.opts)
			if recorder.Code != tt.status {
				t.Errorf("status = %d, want %d, body = %s", recorder.Code, tt.status, recorder.Body.String())
			}
		})
	}
}

func TestCookieWritesNeedCSRFToken(t *testing.T) {
	s := newTestServer(t, nil)
	auth := s.signUp(t, "ann@example.com")
	path := "/api/progress/categories/1/words/1/learned"

	recorder := s.do(t, http.MethodPost, path, requestOptions{cookie: auth.Token})
	if recorder.Code != http.StatusForbidden {
		t.Errorf("cookie write without CSRF status = %d, want 403", recorder.Code)
	}

	recorder = s.do(t, http.MethodPost, path, requestOptions{cookie: auth.Token, csrf: "forged"})
	if recorder.Code != http.StatusForbidden {
		t.Errorf("cookie write with forged CSRF status = %d, want 403", recorder.Code)
	}

	recorder = s.do(t, http.MethodPost, path, requestOptions{cookie: auth.Token, csrf: auth.CSRFToken})
	if recorder.Code != http.StatusOK {
		t.Errorf("cookie write with CSRF status = %d, want 200", recorder.Code)
	}

	recorder = s.do(t, http.MethodGet, "/api/me", requestOptions{cookie: auth.Token})
	if recorder.Code != http.StatusOK {
		t.Fatalf("GET /api/me status = %d", recorder.Code)
	}
	if got := recorder.Header().Get(security.CSRFHeader); got != auth.CSRFToken {
		t.Errorf("GET /api/me CSRF header = %q, want %q", got, auth.CSRFToken)
	}
}

func TestAccountEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	auth := s.signUp(t, "ann@example.com")

	recorder := s.do(t, http.MethodPost, "/api/auth/signup", requestOptions{body: map[string]string{
		"email": "ann@example.com", "password": "long enough", "username": "Again",
	}})
	if recorder.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", recorder.Code)
	}

	recorder = s.do(t, http.MethodPost, "/api/auth/signin", requestOptions{body: map[string]string{
		"email": "ann@example.com", "password": "wrong password",
	}})
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("bad signin status = %d, want 401", recorder.Code)
	}

	recorder = s.do(t, http.MethodPost, "/api/auth/signin", requestOptions{body: map[string]string{"email": "ann@example.com"}})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("signin without password status = %d, want 400", recorder.Code)
	}

	recorder = s.do(t, http.MethodPatch, "/api/me", requestOptions{token: auth.Token, body: map[string]string{"username": "Annie"}})
	if recorder.Code != http.StatusOK {
		t.Fatalf("PATCH /api/me status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if account := decode[models.Account](t, recorder); account.Username != "Annie" {
		t.Errorf("Username = %q, want Annie", account.Username)
	}

	recorder = s.do(t, http.MethodPost, "/api/auth/signout", requestOptions{token: auth.Token})
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", recorder.Code)
	}
	recorder = s.do(t, http.MethodGet, "/api/me", requestOptions{token: auth.Token})
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/me after signout status = %d, want 401", recorder.Code)
	}
}

func TestQuizEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	auth := s.signUp(t, "ann@example.com")
	opts := requestOptions{token: auth.Token}

	recorder := s.do(t, http.MethodGet, "/api/quiz/1?n=3", opts)
	if recorder.Code != http.StatusOK {
		t.Fatalf("GET quiz status = %d", recorder.Code)
	}
	questions := decode[[]models.QuizQuestion](t, recorder)
	if len(questions) != 3 {
		t.Fatalf("quiz has %d questions, want 3", len(questions))
	}

	var answers []models.QuizAnswer
	for _, q := range questions {
		word, err := s.catalog.GetWord(q.WordID)
		if err != nil {
			t.Fatalf("GetWord() error = %v", err)
		}
		answers = append(answers, models.QuizAnswer{WordID: q.WordID, Answer: word.Translation})
	}

	recorder = s.do(t, http.MethodPost, "/api/quiz/1/answers", requestOptions{
		token: auth.Token,
		body:  map[string]interface{}{"answers": answers, "mark_learned": true},
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("POST answers status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	result := decode[submitAnswersResponse](t, recorder)
	if !result.Passed || result.Percent != 100 {
		t.Errorf("result = %+v, want a passed quiz", result.QuizResult)
	}
	if result.Progress == nil || result.Progress.TotalWords != 3 {
		t.Errorf("progress after quiz = %+v, want 3 learned words", result.Progress)
	}

	recorder = s.do(t, http.MethodGet, "/api/quiz/1?n=zero", opts)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("bad n status = %d, want 400", recorder.Code)
	}
	recorder = s.do(t, http.MethodPost, "/api/quiz/1/answers", requestOptions{token: auth.Token, body: map[string]interface{}{"answers": []models.QuizAnswer{}}})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("empty answers status = %d, want 400", recorder.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	recorder := s.do(t, http.MethodGet, "/api/categories", requestOptions{})
	items := decode[[]categoryListItem](t, recorder)
	if len(items) != 3 || items[0].WordCount != 8 {
		t.Errorf("categories = %+v", items)
	}

	recorder = s.do(t, http.MethodGet, "/api/categories/2", requestOptions{})
	category := decode[models.Category](t, recorder)
	if category.Name != "Numbers" || len(category.Words) != 10 {
		t.Errorf("category 2 = %s with %d words", category.Name, len(category.Words))
	}

	recorder = s.do(t, http.MethodGet, "/api/categories/2?difficulty=hard", requestOptions{})
	filtered := decode[models.Category](t, recorder)
	for _, w := range filtered.Words {
		if w.Difficulty != models.DifficultyHard {
			t.Errorf("filtered word %d has difficulty %s", w.ID, w.Difficulty)
		}
	}

	if recorder = s.do(t, http.MethodGet, "/api/categories/2?difficulty=extreme", requestOptions{}); recorder.Code != http.StatusBadRequest {
		t.Errorf("bad difficulty status = %d, want 400", recorder.Code)
	}
	if recorder = s.do(t, http.MethodGet, "/api/categories/42", requestOptions{}); recorder.Code != http.StatusNotFound {
		t.Errorf("unknown category status = %d, want 404", recorder.Code)
	}
	if recorder = s.do(t, http.MethodGet, "/api/words/1/audio", requestOptions{}); recorder.Code != http.StatusNotFound {
		t.Errorf("audio without TTS status = %d, want 404", recorder.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	if recorder := s.do(t, http.MethodGet, "/healthz", requestOptions{}); recorder.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d", recorder.Code)
	}

	s.do(t, http.MethodGet, "/api/categories", requestOptions{})
	recorder := s.do(t, http.MethodGet, "/metrics", requestOptions{})
	if recorder.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "wordcards_http_requests_total") {
		t.Error("metrics output should include request counter")
	}
}

func TestRateLimitOnSignIn(t *testing.T) {
	s := newTestServer(t, security.NewRateLimiter(2, time.Minute))
	body := map[string]string{"email": "ann@example.com", "password": "whatever123"}

	for i := 0; i < 2; i++ {
		if recorder := s.do(t, http.MethodPost, "/api/auth/signin", requestOptions{body: body}); recorder.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, recorder.Code)
		}
	}
	if recorder := s.do(t, http.MethodPost, "/api/auth/signin", requestOptions{body: body}); recorder.Code != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", recorder.Code)
	}
}

func TestOAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	recorder := s.do(t, http.MethodGet, "/api/auth/providers", requestOptions{})
	views := decode[[]OAuthProviderView](t, recorder)
	if len(views) != 1 || views[0].URL != "/api/auth/example/start" {
		t.Errorf("providers = %+v", views)
	}

	if recorder = s.do(t, http.MethodGet, "/api/auth/unknown/start", requestOptions{}); recorder.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", recorder.Code)
	}

	recorder = s.do(t, http.MethodGet, "/api/auth/example/start", requestOptions{})
	if recorder.Code != http.StatusFound {
		t.Fatalf("start status = %d, want 302", recorder.Code)
	}
	location, err := url.Parse(recorder.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect: %v", err)
	}
	if location.Host != "auth.example.com" {
		t.Errorf("redirect host = %s", location.Host)
	}
	if got := location.Query().Get("redirect_uri"); got != "https://cards.example.com/api/auth/example/callback" {
		t.Errorf("redirect_uri = %s", got)
	}

	var stateCookie *http.Cookie
	for _, c := range recorder.Result().Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	if stateCookie == nil || stateCookie.Value != location.Query().Get("state") {
		t.Fatalf("state cookie %+v does not match redirect state", stateCookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/example/callback?code=abc&state=forged", nil)
	req.AddCookie(stateCookie)
	callback := httptest.NewRecorder()
	s.handler.ServeHTTP(callback, req)
	if callback.Code != http.StatusBadRequest {
		t.Errorf("callback with forged state status = %d, want 400", callback.Code)
	}
}
