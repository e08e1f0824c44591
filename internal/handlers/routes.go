package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router bundles the handlers served by the API
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Catalog    *CatalogHandler
	Progress   *ProgressHandler
	Quiz       *QuizHandler
	DB         Pinger
}

// Handler builds the mux with all routes and the outer middleware chain
func (rt *Router) Handler() http.Handler {
	m := rt.Middleware
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /healthz", Healthz(rt.DB))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/categories", rt.Catalog.ListCategories)
	mux.HandleFunc("GET /api/categories/{id}", rt.Catalog.GetCategory)
	mux.HandleFunc("GET /api/words/{id}/audio", rt.Catalog.WordAudio)

	// Auth routes
	mux.HandleFunc("POST /api/auth/signup", m.RateLimit(rt.Auth.SignUp))
	mux.HandleFunc("POST /api/auth/signin", m.RateLimit(rt.Auth.SignIn))
	mux.HandleFunc("POST /api/auth/signout", m.RequireAuth(m.CSRFProtect(rt.Auth.SignOut)))
	mux.HandleFunc("GET /api/auth/providers", rt.Auth.ListOAuthProviders)
	mux.HandleFunc("GET /api/auth/{provider}/start", m.RateLimit(rt.Auth.StartOAuth))
	mux.HandleFunc("GET /api/auth/{provider}/callback", m.RateLimit(rt.Auth.OAuthCallback))
	mux.HandleFunc("GET /api/me", m.RequireAuth(rt.Auth.Me))
	mux.HandleFunc("PATCH /api/me", m.RequireAuth(m.CSRFProtect(rt.Auth.UpdateMe)))

	// Progress routes
	mux.HandleFunc("GET /api/progress", m.RequireAuth(rt.Progress.GetProgress))
	mux.HandleFunc("GET /api/progress/categories", m.RequireAuth(rt.Progress.ListCategories))
	mux.HandleFunc("GET /api/progress/categories/{categoryId}", m.RequireAuth(rt.Progress.GetCategory))
	mux.HandleFunc("GET /api/progress/categories/{categoryId}/words/{wordId}", m.RequireAuth(rt.Progress.GetWord))
	mux.HandleFunc("POST /api/progress/categories/{categoryId}/words/{wordId}/learned", m.RequireAuth(m.CSRFProtect(rt.Progress.MarkLearned)))
	mux.HandleFunc("GET /api/achievements", m.RequireAuth(rt.Progress.Achievements))

	// Quiz routes
	mux.HandleFunc("GET /api/quiz/{categoryId}", m.RequireAuth(rt.Quiz.GetQuiz))
	mux.HandleFunc("POST /api/quiz/{categoryId}/answers", m.RequireAuth(m.CSRFProtect(rt.Quiz.SubmitAnswers)))

	return Logging(Metrics(mux))
}
