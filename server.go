package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/smwgw/at"
	"i4.energy/across/smwgw/modem"
)

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  *modem.Modem
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /identity", s.handleIdentity)
	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("GET /recv", s.handleRecv)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// outcomeStatus maps a module outcome to an HTTP status code
func outcomeStatus(res at.Outcome) int {
	switch res {
	case at.Ok, at.Data:
		return http.StatusOK
	case at.Busy:
		return http.StatusServiceUnavailable
	case at.NoNetwork:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// check writes an error response and returns false unless the command
// succeeded
func (s *Server) check(w http.ResponseWriter, op string, res at.Outcome, err error) bool {
	if err != nil {
		s.Logger.Error("Module command failed", "op", op, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, modem.ErrOutOfRange) {
			status = http.StatusBadRequest
		}
		s.sendError(w, err.Error(), status)
		return false
	}
	if res != at.Ok {
		s.Logger.Warn("Module rejected command", "op", op, "outcome", res)
		s.sendError(w, res.Err().Error(), outcomeStatus(res))
		return false
	}
	return true
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	res, err := s.Modem.Ping(r.Context())
	if !s.check(w, "ping", res, err) {
		return
	}
	s.sendJSON(w, map[string]string{"outcome": res.String()}, http.StatusOK)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	v, res, err := s.Modem.Version(r.Context())
	if !s.check(w, "version", res, err) {
		return
	}
	s.sendJSON(w, map[string]int{"major": v.Major, "minor": v.Minor, "build": v.Build}, http.StatusOK)
}

// handleIdentity reports the LoRaWAN identifiers in grouped form
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	type IdentityResponse struct {
		DevEUI  string `json:"dev_eui"`
		AppEUI  string `json:"app_eui"`
		DevAddr string `json:"dev_addr"`
	}

	ctx := r.Context()
	devEUI, res, err := s.Modem.DevEUI(ctx)
	if !s.check(w, "deveui", res, err) {
		return
	}
	appEUI, res, err := s.Modem.AppEUI(ctx)
	if !s.check(w, "appeui", res, err) {
		return
	}
	devAddr, res, err := s.Modem.DevAddr(ctx)
	if !s.check(w, "devaddr", res, err) {
		return
	}

	s.sendJSON(w, IdentityResponse{
		DevEUI:  string(at.Group([]byte(devEUI), 2)),
		AppEUI:  string(at.Group([]byte(appEUI), 2)),
		DevAddr: string(at.Group([]byte(devAddr), 2)),
	}, http.StatusOK)
}

// handleSend sends an uplink, either as text or as hexadecimal data
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	type SendRequest struct {
		Port uint8  `json:"port"`
		Text string `json:"text"`
		Hex  string `json:"hex"`
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if (req.Text == "") == (req.Hex == "") {
		s.sendError(w, "exactly one of 'text' and 'hex' is required", http.StatusBadRequest)
		return
	}

	var (
		res at.Outcome
		err error
	)
	if req.Text != "" {
		res, err = s.Modem.SendText(r.Context(), req.Port, req.Text)
	} else {
		res, err = s.Modem.SendHex(r.Context(), req.Port, req.Hex)
	}
	if !s.check(w, "send", res, err) {
		return
	}

	s.Logger.Info("Uplink sent", "port", req.Port, "length", len(req.Text)+len(req.Hex))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRecv(w http.ResponseWriter, r *http.Request) {
	type RecvResponse struct {
		Port    int    `json:"port"`
		Payload string `json:"payload"`
	}

	msg, res, err := s.Modem.ReadText(r.Context())
	if !s.check(w, "recv", res, err) {
		return
	}
	s.sendJSON(w, RecvResponse{Port: msg.Port, Payload: string(msg.Payload)}, http.StatusOK)
}
