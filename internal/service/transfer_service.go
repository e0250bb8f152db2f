package service

import (
	"fmt"
	"log/slog"

	"gw-transfer-service/internal/custom_err"
	"gw-transfer-service/internal/models"
	"gw-transfer-service/internal/storage"

	"github.com/shopspring/decimal"
)

type Transfers interface {
	CreateNew(sourceID, targetID models.AccountID, amount decimal.Decimal) (models.TransferID, error)
	FindByID(id models.TransferID) (models.Transfer, error)
	FindAll() []models.Transfer
}

type TransferService struct {
	manager   TransferManager
	transfers storage.TransferLedger
	validator TransferValidator
	log       *slog.Logger
}

func NewTransferService(
	manager TransferManager,
	transfers storage.TransferLedger,
	validator TransferValidator,
	log *slog.Logger,
) Transfers {
	return &TransferService{
		manager:   manager,
		transfers: transfers,
		validator: validator,
		log:       log,
	}
}

// CreateNew checks the transfer against current balances and queues it.
// The pipeline validates it again when the transfer is processed.
func (s *TransferService) CreateNew(sourceID, targetID models.AccountID, amount decimal.Decimal) (models.TransferID, error) {
	const op = "service.CreateTransfer"

	if err := s.validator.Validate(sourceID, targetID, amount); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, custom_err.ErrInvalidInput, err)
	}

	event, err := models.NewTransferEvent(sourceID, targetID, amount)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, custom_err.ErrInvalidInput, err)
	}

	if !s.manager.SubmitEvent(event) {
		return "", custom_err.ErrTooBusy
	}

	s.log.Info("transfer submitted",
		slog.String("transfer_id", event.ID.String()),
		slog.String("source_id", sourceID.String()),
		slog.String("target_id", targetID.String()),
		slog.String("amount", amount.String()))
	return event.ID, nil
}

func (s *TransferService) FindByID(id models.TransferID) (models.Transfer, error) {
	const op = "service.FindTransfer"

	transfer, err := s.transfers.Get(id)
	if err != nil {
		return models.Transfer{}, fmt.Errorf("%s: %w", op, err)
	}
	return transfer, nil
}

func (s *TransferService) FindAll() []models.Transfer {
	return s.transfers.List()
}
