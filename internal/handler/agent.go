package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/agent"
	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

func readMessage(r *http.Request) (string, error) {
	var req api.ChatRequest
	if err := decode(r, &req); err != nil {
		return "", err
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return "", apperr.Invalid("message", "is required")
	}
	return msg, nil
}

// Command runs a single free-text command with the keyword parser.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	msg, err := readMessage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.commands.Handle(r.Context(), msg)
	if errors.Is(err, agent.ErrNotUnderstood) {
		writeErrorBody(w, http.StatusBadRequest, api.KindInvalidInput, err.Error(), nil)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.CommandResponse{
		Operation: res.Op.String(),
		Message:   res.Message,
		Data:      res.Data,
	})
}

// Chat answers a message with the LLM agent.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		writeErrorBody(w, http.StatusServiceUnavailable, api.KindUnavailable, "chat agent is not configured", nil)
		return
	}
	msg, err := readMessage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.llm.Chat(r.Context(), msg)
	var unavailable *agent.UnavailableError
	if errors.As(err, &unavailable) {
		writeErrorBody(w, http.StatusBadGateway, api.KindUnavailable, err.Error(), nil)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ChatResponse{Reply: reply.Text, ToolCalls: reply.ToolCalls})
}

// ResetChat clears the conversation of the LLM agent.
func (h *Handler) ResetChat(w http.ResponseWriter, _ *http.Request) {
	if h.llm != nil {
		h.llm.Reset()
	}
	w.WriteHeader(http.StatusNoContent)
}
