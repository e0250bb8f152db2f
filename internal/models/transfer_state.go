package models

import (
	"fmt"

	"gw-transfer-service/internal/custom_err"
)

// TransferState этап жизненного цикла перевода. Порядок констант совпадает
// с порядком этапов, ERROR достижим из любого незавершенного состояния.
type TransferState int

const (
	TransferStateUnknown TransferState = iota
	TransferStateNew
	TransferStatePending
	TransferStateValidated
	TransferStateSourceWithdrawn
	TransferStateTargetDeposited
	TransferStateDone
	TransferStateError
)

var transferStateNames = map[TransferState]string{
	TransferStateUnknown:         "UNKNOWN",
	TransferStateNew:             "NEW",
	TransferStatePending:         "PENDING",
	TransferStateValidated:       "VALIDATED",
	TransferStateSourceWithdrawn: "SOURCE_WITHDRAWN",
	TransferStateTargetDeposited: "TARGET_DEPOSITED",
	TransferStateDone:            "DONE",
	TransferStateError:           "ERROR",
}

func (s TransferState) String() string {
	if name, ok := transferStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TransferState(%d)", int(s))
}

func (s TransferState) IsTerminal() bool {
	return s == TransferStateDone || s == TransferStateError
}

func (s TransferState) CanTransitionTo(next TransferState) bool {
	switch {
	case s == TransferStateUnknown || s.IsTerminal():
		return false
	case next == TransferStateError:
		return true
	default:
		return next == s+1
	}
}

func ParseTransferState(name string) (TransferState, error) {
	for state, stateName := range transferStateNames {
		if state != TransferStateUnknown && stateName == name {
			return state, nil
		}
	}
	return TransferStateUnknown, fmt.Errorf("%w: %q", custom_err.ErrUnknownTransferState, name)
}

func (s TransferState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransferState) UnmarshalText(text []byte) error {
	state, err := ParseTransferState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}
