package http

import (
	"net/http"

	"github.com/jeka7ro/essence-affirmations-sub000/internal/activity"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/auth"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/challenge"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/config"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/group"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/http/handler"
	mw "github.com/jeka7ro/essence-affirmations-sub000/internal/http/middleware"
	"github.com/jeka7ro/essence-affirmations-sub000/internal/jobs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	activitySvc := &activity.Service{DB: db}
	challengeSvc := &challenge.Service{
		DB:         db,
		Jobs:       &jobs.Repo{DB: db},
		Activities: activitySvc,
	}

	userH := &handler.UserHandler{DB: db}
	challengeH := &handler.ChallengeHandler{Svc: challengeSvc, DB: db}
	groupH := &handler.GroupHandler{Svc: &group.Service{DB: db}, Activities: activitySvc, DB: db}
	activityH := &handler.ActivityHandler{Svc: activitySvc, DB: db}

	r.Route("/users/me", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", userH.Me)
		r.Patch("/", userH.UpdateProfile)
		r.Put("/photo", userH.UploadPhoto)

		r.Route("/challenge", func(r chi.Router) {
			r.Get("/", challengeH.Get)
			r.Put("/history", challengeH.SaveHistory)
			r.Post("/start", challengeH.Start)
			r.Post("/reset", challengeH.Reset)
			r.Post("/congratulations", challengeH.CongratulationsSeen)
		})
	})

	r.Route("/groups", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", groupH.Create)
		r.Get("/", groupH.List)
		r.Post("/join", groupH.Join)

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/membership", groupH.Leave)
			r.Get("/members", groupH.Members)
			r.Get("/messages", groupH.Messages)
			r.Post("/messages", groupH.PostMessage)
		})
	})

	r.With(auth.RequireAuth(jwtSvc)).Get("/activities", activityH.Feed)
	r.With(auth.RequireAuth(jwtSvc)).Get("/leaderboard", activityH.Leaderboard)
	r.With(auth.RequireAuth(jwtSvc)).Get("/leaderboard/group", activityH.GroupLeaderboard)

	return r
}
