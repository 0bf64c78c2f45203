package api

import (
	"errors"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/exchange"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/ledger"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/registry"
	"net/http"
	"strconv"
)

const (
	CodeInvalidRequest     = "InvalidRequest"
	CodeMissingCaller      = "MissingCaller"
	CodeNotFound           = "NotFound"
	CodeNotOwnerOrApproved = "NotOwnerOrApproved"
	CodeUnavailable        = "Unavailable"
)

var statuses = map[string]int{
	exchange.CodeInvalidPrice:              http.StatusBadRequest,
	exchange.CodeNotItemOwnerOrNotApproved: http.StatusForbidden,
	exchange.CodeListingNotActive:          http.StatusConflict,
	exchange.CodeListingNotFound:           http.StatusNotFound,
	exchange.CodeNotOwner:                  http.StatusForbidden,
	exchange.CodeInsufficientFunds:         http.StatusUnprocessableEntity,
	exchange.CodeInsufficientAllowance:     http.StatusUnprocessableEntity,
	exchange.CodeInvalidFeePercent:         http.StatusBadRequest,
	exchange.CodeSettlementFailed:          http.StatusBadGateway,
	exchange.CodeInvalidConfig:             http.StatusInternalServerError,
	exchange.CodeInternal:                  http.StatusInternalServerError,
	CodeInvalidRequest:                     http.StatusBadRequest,
	CodeMissingCaller:                      http.StatusUnauthorized,
	CodeNotFound:                           http.StatusNotFound,
	CodeNotOwnerOrApproved:                 http.StatusForbidden,
	CodeUnavailable:                        http.StatusServiceUnavailable,
}

// classify maps err to its wire code and HTTP status. Exchange rejections keep
// their own codes; collaborator errors reached directly through the API are
// folded into the generic request codes.
func classify(err error) (string, int) {
	code := exchange.Code(err)
	if code == exchange.CodeInternal {
		code = collaboratorCode(err)
	}

	status, ok := statuses[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	return code, status
}

func collaboratorCode(err error) string {
	var numErr *strconv.NumError

	switch {
	case errors.Is(err, ErrMissingCaller):
		return CodeMissingCaller
	case errors.Is(err, ErrIndexDisabled):
		return CodeUnavailable
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return exchange.CodeInsufficientFunds
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return exchange.CodeInsufficientAllowance
	case errors.Is(err, registry.ErrItemNotFound),
		errors.Is(err, registry.ErrRegistryNotFound):
		return CodeNotFound
	case errors.Is(err, registry.ErrNotOwnerOrApproved):
		return CodeNotOwnerOrApproved
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, entity.ErrInvalidAddress),
		errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidRecipient),
		errors.Is(err, ledger.ErrInvalidSpender),
		errors.Is(err, registry.ErrIncorrectOwner),
		errors.Is(err, registry.ErrInvalidRecipient),
		errors.Is(err, registry.ErrApprovalToOwner),
		errors.Is(err, registry.ErrApproveToCaller),
		errors.Is(err, registry.ErrInvalidTokenUri),
		errors.Is(err, registry.ErrInvalidMinter),
		errors.As(err, &numErr):
		return CodeInvalidRequest
	}

	return exchange.CodeInternal
}
