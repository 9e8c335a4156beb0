package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hango1705/bongland-backend/internal/service"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusOK  Status = "OK"
	StatusERR Status = "ERR"
)

// Response 所有 API 共用的回應格式
type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func SuccessJSON(w http.ResponseWriter, data any, message string) {
	if message == "" {
		message = "SUCCESS"
	}
	WriteJSON(w, http.StatusOK, Response{Status: StatusOK, Message: message, Data: data})
}

func ErrorJSON(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Status: StatusERR, Message: message})
}

// ServiceErrorJSON 依錯誤分類決定 HTTP 狀態
// 驗證、找不到、衝突都回 400，與既有前端約定一致
func ServiceErrorJSON(w http.ResponseWriter, err error) {
	status := StatusCodeOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		message = "Internal server error"
	}
	ErrorJSON(w, status, message)
}

func StatusCodeOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
