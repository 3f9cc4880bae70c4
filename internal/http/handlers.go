package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, identity string)

// authed resolves the bearer token before the handler runs. A missing or bad
// token never reaches the engine.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, apperrors.ErrUnauthenticated)
			return
		}
		identity, err := s.Sessions.Resolve(token)
		if err != nil {
			s.writeError(w, err)
			return
		}
		h(w, r, identity)
	}
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrInvalidInput)
		return
	}
	if err := s.OTP.Send(r.Context(), normalizePhone(req.Phone)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"ok": true, "sent": true})
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrInvalidInput)
		return
	}
	phone := normalizePhone(req.Phone)
	if err := s.OTP.Verify(r.Context(), phone, req.Code); err != nil {
		s.writeError(w, err)
		return
	}
	identity := s.Registry.Ensure(phone)
	token, err := s.Sessions.Issue(identity, phone)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"access_token": token, "token_type": "Bearer"})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request, identity string) {
	var req models.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == nil || req.To == nil {
		s.writeError(w, apperrors.ErrInvalidInput)
		return
	}
	q, err := s.Pricing.Quote(r.Context(), *req.From, *req.To, req.Class)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, q)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request, identity string) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrInvalidInput)
		return
	}
	o, err := s.Engine.CreateOrder(r.Context(), identity, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, o)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, identity string) {
	o, err := s.Engine.GetOrder(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, o)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request, identity string) {
	o, err := s.Engine.Cancel(r.Context(), mux.Vars(r)["id"], identity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"ok": true, "status": o.Status})
}

func (s *Server) handleDriverStatus(w http.ResponseWriter, r *http.Request, identity string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrInvalidInput)
		return
	}
	s.Drivers.Set(identity, req.Status)
	s.writeJSON(w, map[string]any{"ok": true, "status": s.Drivers.Get(identity)})
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request, identity string) {
	offers, err := s.Engine.ListOffers(identity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if offers == nil {
		offers = []models.Order{}
	}
	s.writeJSON(w, offers)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request, identity string) {
	o, err := s.Engine.Accept(r.Context(), mux.Vars(r)["id"], identity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"ok": true, "orderId": o.ID, "status": o.Status})
}

func (s *Server) handleTripStatus(w http.ResponseWriter, r *http.Request, identity string) {
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		s.writeError(w, apperrors.ErrInvalidInput)
		return
	}
	o, err := s.Engine.ReportStatus(r.Context(), mux.Vars(r)["id"], identity, req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"ok": true, "status": o.Status})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("internal error", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// normalizePhone strips formatting so "+7 (700) 123-45-67" and "+77001234567"
// land on the same identity.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
