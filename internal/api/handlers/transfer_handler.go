package handlers

import (
	"encoding/json"
	"errors"
	"gw-transfer-service/internal/api/middlew"
	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/service"
	"gw-transfer-service/pkg/response"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type TransferHandler struct {
	service service.Transfers
}

func NewTransferHandler(service service.Transfers) *TransferHandler {
	return &TransferHandler{
		service: service,
	}
}

// CreateTransfer godoc
// @Summary      Создать перевод
// @Description  Ставит перевод в очередь на обработку. Итоговый статус доступен через GET /transfers/{transferID}
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body models.CreateTransferRequest true "Данные перевода"
// @Success      201 {object} models.CreatedResponse
// @Header       201 {string} Location "/api/v1/transfers/{transferID}"
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /transfers [post]
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateTransfer"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Amount == nil {
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "amount is required")
		return
	}

	log.Info("transfer request",
		slog.String("op", op),
		slog.String("client_id", middlew.GetClientID(r.Context())),
		slog.String("source_id", req.SourceAccountID.String()),
		slog.String("target_id", req.TargetAccountID.String()),
		slog.String("amount", req.Amount.String()))

	id, err := h.service.CreateNew(req.SourceAccountID, req.TargetAccountID, *req.Amount)
	if err != nil {
		if reason, ok := service.ValidationReason(err); ok {
			log.Info("transfer rejected", slog.String("op", op), slog.String("reason", reason.Error()))
			response.WriteJSONError(w, log, http.StatusBadRequest, "validation_failed", reason.Error())
			return
		}
		switch {
		case errors.Is(err, custom_err.ErrTooBusy):
			log.Warn("transfer queue is full", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusTooManyRequests, "too_busy", "Server is too busy, please try again later")
		case errors.Is(err, custom_err.ErrInvalidInput):
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_input", "Invalid transfer request")
		default:
			log.Error("failed to create transfer", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		}
		return
	}

	response.WriteCreated(w, log, "/api/v1/transfers/"+id.String(), models.CreatedResponse{ID: id.String()})
}

// GetTransfer godoc
// @Summary      Получить перевод
// @Description  Возвращает последний снимок состояния перевода
// @Tags         transfers
// @Produce      json
// @Param        transferID path string true "ID перевода"
// @Success      200 {object} models.Transfer
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /transfers/{transferID} [get]
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetTransfer"
	log := middlew.GetLogger(r.Context())

	id := models.TransferID(chi.URLParam(r, "transferID"))

	transfer, err := h.service.FindByID(id)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("transfer not found", slog.String("op", op), slog.String("id", id.String()))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Transfer not found")
		default:
			log.Error("failed to get transfer", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve transfer")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, transfer)
}

// ListTransfers godoc
// @Summary      Список переводов
// @Description  Возвращает все переводы в порядке поступления
// @Tags         transfers
// @Produce      json
// @Success      200 {array} models.Transfer
// @Router       /transfers [get]
func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	log := middlew.GetLogger(r.Context())

	response.WriteJSONSuccess(w, log, http.StatusOK, h.service.FindAll())
}
