package tickets

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/modfleet/gatehouse/pkg/httputil"
	"github.com/modfleet/gatehouse/pkg/middleware"
	"github.com/modfleet/gatehouse/pkg/observability"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxTopicLength   = 512
	maxReasonLength  = 1024
)

// Handlers provides HTTP handlers for ticket and warning operations
type Handlers struct {
	storage Storage
	logger  *observability.Logger
}

// NewHandlers creates new ticket handlers
func NewHandlers(storage Storage, logger *observability.Logger) *Handlers {
	return &Handlers{
		storage: storage,
		logger:  logger,
	}
}

// RegisterRoutes registers all ticket routes. Callers are expected to have
// wrapped the router with the access guard already.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tickets", h.CreateTicket).Methods("POST")
	router.HandleFunc("/tickets", h.ListTickets).Methods("GET")
	router.HandleFunc("/tickets/{id}", h.GetTicket).Methods("GET")
	router.HandleFunc("/tickets/{id}/close", h.CloseTicket).Methods("POST")
	router.HandleFunc("/warnings", h.CreateWarning).Methods("POST")
	router.HandleFunc("/users/{subject_id}/warnings", h.ListWarnings).Methods("GET")
}

// CreateTicket opens a new ticket attributed to the authenticated subject
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req struct {
		Topic string `json:"topic"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if !httputil.RequireNonEmpty(w, req.Topic, "topic") {
		return
	}
	if len(req.Topic) > maxTopicLength {
		httputil.WriteBadRequest(w, "topic is too long")
		return
	}

	ticket := &Ticket{
		SubjectID: ident.SubjectID,
		Topic:     req.Topic,
	}
	if err := h.storage.CreateTicket(r.Context(), ticket); err != nil {
		h.logger.WithError(err).Error("failed to create ticket")
		httputil.WriteInternalError(w, errors.New("failed to create ticket"))
		return
	}

	httputil.WriteCreated(w, ticket)
}

// ListTickets lists tickets, optionally filtered by ?status=open|closed
func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	status := Status(httputil.ParseQueryString(r, "status", ""))
	if status != "" && status != StatusOpen && status != StatusClosed {
		httputil.WriteBadRequest(w, "status must be open or closed")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 || limit > maxListLimit {
		httputil.WriteBadRequest(w, "invalid limit")
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		httputil.WriteBadRequest(w, "invalid offset")
		return
	}

	tickets, err := h.storage.ListTickets(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("failed to list tickets")
		httputil.WriteInternalError(w, errors.New("failed to list tickets"))
		return
	}
	if tickets == nil {
		tickets = []*Ticket{}
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"tickets": tickets,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetTicket returns a single ticket by ID
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	ticket, err := h.storage.GetTicket(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteNotFound(w, "ticket not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("ticket_id", id).Error("failed to get ticket")
		httputil.WriteInternalError(w, errors.New("failed to get ticket"))
		return
	}

	httputil.WriteSuccess(w, ticket)
}

// CloseTicket marks an open ticket closed, recording who closed it
func (h *Handlers) CloseTicket(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	ticket, err := h.storage.CloseTicket(r.Context(), id, ident.SubjectID)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteNotFound(w, "ticket not found or already closed")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("ticket_id", id).Error("failed to close ticket")
		httputil.WriteInternalError(w, errors.New("failed to close ticket"))
		return
	}

	httputil.WriteSuccess(w, ticket)
}

// CreateWarning records a moderation warning attributed to the authenticated moderator
func (h *Handlers) CreateWarning(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req struct {
		SubjectID string `json:"subject_id"`
		Reason    string `json:"reason"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Reason = strings.TrimSpace(req.Reason)
	if !httputil.RequireNonEmpty(w, req.SubjectID, "subject_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Reason, "reason") {
		return
	}
	if len(req.Reason) > maxReasonLength {
		httputil.WriteBadRequest(w, "reason is too long")
		return
	}

	warning := &Warning{
		SubjectID:   req.SubjectID,
		ModeratorID: ident.SubjectID,
		Reason:      req.Reason,
	}
	if err := h.storage.CreateWarning(r.Context(), warning); err != nil {
		h.logger.WithError(err).Error("failed to create warning")
		httputil.WriteInternalError(w, errors.New("failed to create warning"))
		return
	}

	httputil.WriteCreated(w, warning)
}

// ListWarnings lists all warnings for a subject
func (h *Handlers) ListWarnings(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["subject_id"]
	if subjectID == "" {
		httputil.WriteBadRequest(w, "subject_id is required")
		return
	}

	warnings, err := h.storage.ListWarnings(r.Context(), subjectID)
	if err != nil {
		h.logger.WithError(err).WithField("subject_id", subjectID).Error("failed to list warnings")
		httputil.WriteInternalError(w, errors.New("failed to list warnings"))
		return
	}
	if warnings == nil {
		warnings = []*Warning{}
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"warnings": warnings,
	})
}
