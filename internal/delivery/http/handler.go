package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"huddle/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type HttpHandler struct {
	chatUc usecase.ChatUsecase
	userUc usecase.UserUsecase
}

func NewHttpHandler(chatUc usecase.ChatUsecase, userUc usecase.UserUsecase) *HttpHandler {
	return &HttpHandler{
		chatUc: chatUc,
		userUc: userUc,
	}
}

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// Method Post /chat
func (h *HttpHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string   `json:"type"`
		Name    string   `json:"name"`
		UserIds []string `json:"userIds"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId, err := h.chatUc.Create(r.Context(), req.Type, req.Name, claims.UserId, req.UserIds)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) || errors.Is(err, usecase.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
			return
		}
		log.Printf("create chat error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Message: "success",
		Data:    map[string]string{"chatId": chatId},
	})
}

// Method Get /chat
func (h *HttpHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chats, err := h.chatUc.Index(r.Context(), claims.UserId)
	if err != nil {
		log.Printf("list chats error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: chats})
}

// Method Get /user/{id}
func (h *HttpHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "id")

	user, err := h.userUc.Get(r.Context(), userId)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Response{Message: "user not found"})
			return
		}
		log.Printf("get user error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: user})
}

// Method Get /healthz
func (h *HttpHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Message: "ok"})
}
