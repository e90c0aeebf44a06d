package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"wanderplan/auth"
	"wanderplan/itinerary"
	"wanderplan/metrics"
	"wanderplan/middleware"
	"wanderplan/notify"
	"wanderplan/ratelim"
	"wanderplan/users"
	"wanderplan/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.SendResponse(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

// AddStaticRoutes serves uploaded files (avatars) under the same path they are stored at.
func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	if uploadDir == "" {
		return
	}
	prefix := "/" + strings.Trim(filepath.ToSlash(uploadDir), "/")
	router.ServeFiles(prefix+"/*filepath", http.Dir(uploadDir))
}

func AddOpsRoutes(router *httprouter.Router, gatherer prometheus.Gatherer) {
	router.GET("/health", Index)
	if gatherer != nil {
		router.Handler(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handlers, authn *middleware.Authenticator) {
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.POST("/api/auth/logout", authn.Authenticate(h.Logout))
}

func AddUserRoutes(router *httprouter.Router, h *users.Handlers, authn *middleware.Authenticator) {
	router.GET("/api/users/me", authn.Authenticate(h.GetMe))
	router.PUT("/api/users/me", authn.Authenticate(h.UpdateMe))
	router.POST("/api/users/me/avatar", authn.Authenticate(h.UploadAvatar))
}

func AddItineraryRoutes(router *httprouter.Router, h *itinerary.Handlers, authn *middleware.Authenticator, rateLimiter *ratelim.RateLimiter) {
	// The limiter sits inside authentication so only signed-in callers spend the budget.
	generate := h.Generate
	if rateLimiter != nil {
		generate = rateLimiter.Limit(generate)
	}
	router.POST("/api/generate", authn.Authenticate(generate))

	router.GET("/api/itineraries", authn.Authenticate(h.List))
	router.POST("/api/itineraries", authn.Authenticate(h.Create))
	router.GET("/api/itineraries/:id", authn.Authenticate(h.Get))
	router.PUT("/api/itineraries/:id", authn.Authenticate(h.Update))
	router.DELETE("/api/itineraries/:id", authn.Authenticate(h.Delete))

	router.POST("/api/itineraries/:id/collaborate", authn.Authenticate(h.AddCollaborator))
	router.DELETE("/api/itineraries/:id/collaborate", authn.Authenticate(h.RemoveCollaborator))

	router.GET("/api/itineraries/:id/export/pdf", authn.Authenticate(h.ExportPDF))
	router.GET("/api/itineraries/:id/export/ics", authn.Authenticate(h.ExportICS))
}

func AddLiveRoutes(router *httprouter.Router, hub *notify.Hub, svc *itinerary.Service, authn *middleware.Authenticator) {
	router.GET("/api/itineraries/:id/live", authn.Authenticate(notify.WebSocketHandler(hub, svc.CanRead)))
}
