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

type AccountHandler struct {
	service service.Accounts
}

func NewAccountHandler(service service.Accounts) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// CreateAccount godoc
// @Summary      Открыть счет
// @Description  Создает счет с начальным балансом. Баланс не может быть отрицательным
// @Tags         accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body models.CreateAccountRequest true "Начальный баланс"
// @Success      201 {object} models.CreatedResponse
// @Header       201 {string} Location "/api/v1/accounts/{accountID}"
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateAccount"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.InitialBalance == nil {
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "initialBalance is required")
		return
	}

	id, err := h.service.CreateNew(*req.InitialBalance)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("invalid initial balance", slog.String("op", op), slog.String("balance", req.InitialBalance.String()))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_amount", "Initial balance must not be negative")
		default:
			log.Error("failed to create account", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "An internal error occurred")
		}
		return
	}

	response.WriteCreated(w, log, "/api/v1/accounts/"+id.String(), models.CreatedResponse{ID: id.String()})
}

// GetAccount godoc
// @Summary      Получить счет
// @Description  Возвращает текущий баланс счета
// @Tags         accounts
// @Produce      json
// @Param        accountID path string true "ID счета"
// @Success      200 {object} models.Account
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /accounts/{accountID} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetAccount"
	log := middlew.GetLogger(r.Context())

	id := models.AccountID(chi.URLParam(r, "accountID"))

	account, err := h.service.FindByID(id)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op), slog.String("id", id.String()))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("failed to get account", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve account")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, account)
}
