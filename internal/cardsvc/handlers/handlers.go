package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avvvet/card-services/internal/cardsvc/models"
	"github.com/avvvet/card-services/internal/cardsvc/service"
	"github.com/go-chi/jwtauth"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const HealthText = "Telegram bot is running"

type Handler struct {
	tokenAuth   *jwtauth.JWTAuth
	subscribers *service.SubscriberService
}

func NewHandler(subscribers *service.SubscriberService) *Handler {
	return &Handler{subscribers: subscribers}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(HealthText))
}

// ListSubscribersHandler serves the subscriber list to tokens whose
// user_id claim belongs to an admin.
func (h *Handler) ListSubscribersHandler(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: "invalid token"})
		return
	}

	userID, ok := claimUserID(claims["user_id"])
	if !ok {
		h.CreateResponse(w, Response{Code: http.StatusForbidden, Error: "token has no user_id"})
		return
	}

	subs, err := h.subscribers.List(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			h.CreateResponse(w, Response{Code: http.StatusForbidden, Error: "admin access required"})
			return
		}
		log.Errorf("error [ListSubscribersHandler] user %d: %s", userID, err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "unable to list subscribers"})
		return
	}

	h.CreateResponse(w, Response{
		Message: strconv.Itoa(len(subs)) + " subscribers",
		Code:    http.StatusOK,
		Data:    subs,
	})
}

// claimUserID accepts the numeric forms a JSON claim decodes into.
func claimUserID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	}
	return 0, false
}
