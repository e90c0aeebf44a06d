package routes

import (
	"wanderplan/auth"
	"wanderplan/itinerary"
	"wanderplan/middleware"
	"wanderplan/notify"
	"wanderplan/ratelim"
	"wanderplan/users"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps is everything the route table hands out to handlers.
type Deps struct {
	Auth        *auth.Handlers
	Users       *users.Handlers
	Itineraries *itinerary.Handlers
	Hub         *notify.Hub
	Tokens      *middleware.Authenticator
	RateLimiter *ratelim.RateLimiter
	Gatherer    prometheus.Gatherer
	UploadDir   string
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddOpsRoutes(router, d.Gatherer)
	AddStaticRoutes(router, d.UploadDir)
	AddAuthRoutes(router, d.Auth, d.Tokens)
	AddUserRoutes(router, d.Users, d.Tokens)
	AddItineraryRoutes(router, d.Itineraries, d.Tokens, d.RateLimiter)
	AddLiveRoutes(router, d.Hub, d.Itineraries.Service, d.Tokens)
}
