package models

import (
	"time"
)

// событие о завершении перевода (DONE или ERROR)
type TransferOutcomeEvent struct {
	TransferID TransferID `json:"transfer_id"` // ID перевода
	SourceID   AccountID  `json:"source_id"`   // Счет списания
	TargetID   AccountID  `json:"target_id"`   // Счет зачисления
	Amount     string     `json:"amount"`      // Сумма перевода
	State      string     `json:"state"`       // Итоговое состояние
	Details    string     `json:"details"`     // Причина или результат
	Timestamp  time.Time  `json:"timestamp"`   // Время завершения
}

func NewTransferOutcomeEvent(t Transfer) TransferOutcomeEvent {
	return TransferOutcomeEvent{
		TransferID: t.ID,
		SourceID:   t.SourceID,
		TargetID:   t.TargetID,
		Amount:     t.Amount.String(),
		State:      t.State.String(),
		Details:    t.Details,
		Timestamp:  time.Now(),
	}
}
