package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

var statusByCode = map[ledger.Code]int{
	ledger.CodeNotRegistered:          http.StatusForbidden,
	ledger.CodeInactiveAccount:        http.StatusForbidden,
	ledger.CodeUnauthorizedRole:       http.StatusForbidden,
	ledger.CodeBatchNotFound:          http.StatusNotFound,
	ledger.CodeCertificateNotFound:    http.StatusNotFound,
	ledger.CodeDuplicateRegistration:  http.StatusConflict,
	ledger.CodeDuplicateCertRequest:   http.StatusConflict,
	ledger.CodeAlreadyDecided:         http.StatusConflict,
	ledger.CodeAlreadyInitialized:     http.StatusConflict,
	ledger.CodeInvalidTransition:      http.StatusConflict,
	ledger.CodeCertificateNotApproved: http.StatusConflict,
	ledger.CodeInvalidQuantity:        http.StatusBadRequest,
	ledger.CodeInvalidInput:           http.StatusBadRequest,
	ledger.CodeInvalidRole:            http.StatusBadRequest,
}

// ledgerError is the JSON body of a rejected operation.
type ledgerError struct {
	Code    ledger.Code `json:"code"`
	Message string      `json:"message"`
}

// toHTTPError turns a ledger rejection into the matching client error and
// anything else into a 500 that hides the cause.
func toHTTPError(err error) error {
	var le *ledger.Error
	if errors.As(err, &le) {
		status, ok := statusByCode[le.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		return echo.NewHTTPError(status, ledgerError{Code: le.Code, Message: le.Message}).WithInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").WithInternal(err)
}
