package routes

import (
	"net/http"

	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterDeps struct {
	SportHandler     *handlers.SportHandler
	TeamHandler      *handlers.TeamHandler
	BracketHandler   *handlers.BracketHandler
	MatchHandler     *handlers.MatchHandler
	WebSocketHandler *handlers.WebSocketHandler
	AllowedOrigins   []string
}

func SetupRoutes(deps RouterDeps) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/sports", func(r chi.Router) {
		r.Post("/", deps.SportHandler.CreateSport)
		r.Get("/", deps.SportHandler.ListSports)
		r.Get("/{id}", deps.SportHandler.GetSport)
		r.Get("/{id}/teams", deps.TeamHandler.ListSportTeams)
	})

	router.Route("/teams", func(r chi.Router) {
		r.Post("/", deps.TeamHandler.CreateTeam)
		r.Get("/", deps.TeamHandler.ListTeams)
		r.Get("/{id}", deps.TeamHandler.GetTeam)
	})

	router.Route("/brackets", func(r chi.Router) {
		r.Post("/", deps.BracketHandler.CreateBracket)
		r.Get("/{bracketID}", deps.BracketHandler.GetBracket)
		r.Delete("/{bracketID}", deps.BracketHandler.DeleteBracket)
		r.Post("/{bracketID}/generate", deps.BracketHandler.GenerateBracket)
		r.Get("/{bracketID}/matches", deps.BracketHandler.ListMatches)
		r.Get("/{bracketID}/standings", deps.BracketHandler.GetStandings)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", deps.MatchHandler.GetMatch)
		r.Post("/{matchID}/start", deps.MatchHandler.StartMatch)
		r.Post("/{matchID}/result", deps.MatchHandler.SubmitResult)
		r.Put("/{matchID}/result", deps.MatchHandler.CorrectResult)
	})

	router.Get("/ws/brackets/{bracketID}", deps.WebSocketHandler.ServeBracketWS)

	return router
}
