package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

// SecurityHandler exposes login risk alerts to administrators.
type SecurityHandler interface {
	ListAlerts(w http.ResponseWriter, r *http.Request)
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type securityHandlerImpl struct {
	securityService security.Service
	jwtService      jwt.Service
}

func NewSecurityHandler(securityService security.Service, jwtService jwt.Service) SecurityHandler {
	return &securityHandlerImpl{
		securityService: securityService,
		jwtService:      jwtService,
	}
}

// ListAlerts returns paginated alerts, newest first
func (h *securityHandlerImpl) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := security.AlertFilter{
		Page:  getIntQueryParam(r, "page", 1),
		Limit: getIntQueryParam(r, "limit", 20),
	}
	query := r.URL.Query()
	if level := query.Get("level"); level != "" {
		l := security.RiskLevel(level)
		filter.Level = &l
	}
	if userID := query.Get("user_id"); userID != "" {
		filter.UserID = &userID
	}

	result, err := h.securityService.ListAlerts(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Alerts, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// GetStreamToken generates a short-lived token for the alert stream
func (h *securityHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(claims.UserID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, security.StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes alerts over Server-Sent Events. EventSource cannot send
// headers, so the short-lived token arrives in the query string.
func (h *securityHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.securityService.Subscribe(r.Context(), userID)
	defer cleanup()

	if _, err := (sse.Event{Event: "connected", Data: map[string]string{"status": "connected", "user_id": userID}}).WriteTo(w); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if _, err := (sse.Event{ID: event.Data.ID, Event: event.Event, Data: event.Data}).WriteTo(w); err != nil {
				slog.Warn("alert stream write failed", "user_id", userID, "error", err)
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, ": ping %d\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
