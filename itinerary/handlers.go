package itinerary

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"wanderplan/agi"
	"wanderplan/ingest"
	"wanderplan/models"
	"wanderplan/utils"

	"github.com/julienschmidt/httprouter"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Service *Service
	BaseURL string
}

// PublicLink is the address embedded in exports.
func (h *Handlers) PublicLink(id string) string {
	if h.BaseURL == "" {
		return ""
	}
	return h.BaseURL + "/itineraries/" + id
}

// tagList accepts ["a","b"] or "a, b".
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = utils.SplitTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = trimAll(list)
	return nil
}

type generateInput struct {
	Destination string        `json:"destination"`
	Days        int           `json:"days"`
	TotalDays   int           `json:"totalDays"`
	Budget      models.Amount `json:"budget"`
	Interests   tagList       `json:"interests"`
	StartDate   string        `json:"startDate"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in generateInput
	if !decode(w, r, &in) {
		return
	}
	days := in.Days
	if days == 0 {
		days = in.TotalDays
	}

	it, err := h.Service.Generate(r.Context(), utils.GetUserIDFromRequest(r), GenerateRequest{
		Destination: in.Destination,
		Days:        days,
		Budget:      in.Budget.String(),
		Interests:   in.Interests,
		StartDate:   in.StartDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusCreated, it, "Itinerary generated")
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	its, err := h.Service.List(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, its, "")
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p Patch
	if !decode(w, r, &p) {
		return
	}
	it, err := h.Service.CreateManual(r.Context(), utils.GetUserIDFromRequest(r), p)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusCreated, it, "Itinerary created")
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	it, err := h.Service.Get(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, it, "")
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p Patch
	if !decode(w, r, &p) {
		return
	}
	it, err := h.Service.Update(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, it, "Itinerary updated")
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.Service.Delete(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, nil, "Itinerary deleted successfully")
}

func (h *Handlers) AddCollaborator(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	it, err := h.Service.AddCollaborator(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"), in.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, it, "Collaborator added")
}

// RemoveCollaborator takes the user id from ?userId= or a {"userId": ...} body.
func (h *Handlers) RemoveCollaborator(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := r.URL.Query().Get("userId")
	if userID == "" && r.ContentLength != 0 {
		var in struct {
			UserID string `json:"userId"`
		}
		if !decode(w, r, &in) {
			return
		}
		userID = in.UserID
	}
	it, err := h.Service.RemoveCollaborator(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, it, "Collaborator removed")
}

func (h *Handlers) ExportPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	it, err := h.Service.Get(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := RenderPDF(it, h.PublicLink(it.ItineraryID))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary-`+it.ItineraryID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *Handlers) ExportICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	it, err := h.Service.Get(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	cal, err := RenderICS(it, h.PublicLink(it.ItineraryID), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary-`+it.ItineraryID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(cal))
}

// writeError is the single place where service errors become HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		exhausted *agi.ExhaustedError
		invalid   *ingest.ValidationError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		utils.SendError(w, http.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, ErrSelfCollaborator), errors.Is(err, ErrAlreadyCollaborator),
		errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrNoStartDate):
		utils.SendError(w, http.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, agi.ErrMissingCredential):
		utils.SendError(w, http.StatusInternalServerError,
			"Generation failed: "+err.Error()+". "+agi.HintFor(agi.ClassAuth))
	case errors.Is(err, agi.ErrNoModels):
		utils.SendError(w, http.StatusInternalServerError,
			"Generation failed: "+err.Error()+". "+agi.HintFor(agi.ClassModel))
	case errors.As(err, &exhausted):
		utils.SendError(w, http.StatusInternalServerError, "Generation failed: "+exhausted.Error()+". "+exhausted.Hint())
	case errors.As(err, &invalid):
		utils.SendError(w, http.StatusInternalServerError, "Generated itinerary could not be used: "+invalid.Error())
	default:
		slog.Error("itinerary request failed", "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(bytes.ToUpper([]byte(s[:1]))) + s[1:]
}
