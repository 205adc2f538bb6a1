package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
)

var errBadRequest = errors.New("bad request")

type startRoundRequest struct {
	Mode string `json:"mode"`
}

type turnRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) startRound(w http.ResponseWriter, r *http.Request) {
	var req startRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}

	round, err := that.rounds.StartRound(r.Context(), req.Mode)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, round)
}

func (that *Server) getRound(w http.ResponseWriter, r *http.Request) {
	round, err := that.rounds.GetRound(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, round)
}

func (that *Server) makeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, r, errors.Join(errBadRequest, err))
		return
	}

	if req.Row == nil || req.Col == nil {
		that.writeError(w, r, errors.Join(errBadRequest, errors.New("row and col are required")))
		return
	}

	round, err := that.rounds.MakeTurn(r.Context(), chi.URLParam(r, "id"), *req.Row, *req.Col)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, round)
}

func (that *Server) playAI(w http.ResponseWriter, r *http.Request) {
	round, err := that.rounds.PlayAI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, round)
}

func (that *Server) resetRound(w http.ResponseWriter, r *http.Request) {
	round, err := that.rounds.ResetRound(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, round)
}

func (that *Server) analyze(w http.ResponseWriter, r *http.Request) {
	scores, err := that.rounds.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, scores)
}

func (that *Server) endRound(w http.ResponseWriter, r *http.Request) {
	if err := that.rounds.EndRound(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError - caller mistakes are reported with 4xx, everything else is logged as 500.
func (that *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, apperror.ErrUnknownMode), errors.Is(err, apperror.ErrInvalidMark):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrRoundNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrIllegalMove), errors.Is(err, apperror.ErrNoLegalMove), errors.Is(err, apperror.ErrNotYourTurn):
		status = http.StatusConflict
	}

	log := that.logger.With("method", r.Method, "path", r.URL.Path)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Debug("request rejected", "status", status, "error", err)
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
