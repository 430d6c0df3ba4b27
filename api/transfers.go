/*
Copyright 2025 Corebank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	corebank "github.com/corebank-io/corebank"
	"github.com/corebank-io/corebank/internal/apierror"
	"github.com/corebank-io/corebank/ledger"
	"github.com/corebank-io/corebank/model"
)

// LocalTransfer executes a fund transfer between two local accounts.
// Validation failures come back as 422, contention as 409 (safe for the
// caller to retry), success as 201 with the full before/after snapshot.
func (a *Api) LocalTransfer(c *gin.Context) {
	var request model.TransferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		apiErr := apierror.NewAPIError(apierror.ErrBadRequest, "invalid request body", err.Error())
		c.JSON(http.StatusBadRequest, apiErr)
		return
	}
	if err := request.ValidateTransferRequest(); err != nil {
		apiErr := apierror.NewAPIError(apierror.ErrUnprocessable, "validation error for the request", err.Error())
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	logrus.WithFields(logrus.Fields{
		"debit_account":  request.DebitAccountID,
		"credit_account": request.CreditAccountID,
		"ref_id":         request.RefID,
	}).Info("processing transfer request")

	record, err := a.service.ExecuteTransfer(c.Request.Context(), &request)
	if err != nil {
		apiErr := mapTransferError(err)
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func mapTransferError(err error) apierror.APIError {
	switch {
	case errors.Is(err, corebank.ErrInvalidAmount),
		errors.Is(err, corebank.ErrSameAccount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, corebank.ErrUnknownDebitAccount),
		errors.Is(err, corebank.ErrOwnershipMismatch),
		errors.Is(err, corebank.ErrUnknownCreditAccount),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return apierror.NewAPIError(apierror.ErrUnprocessable, "validation error for the request", err.Error())
	case errors.Is(err, ledger.ErrContentionExceeded):
		return apierror.NewAPIError(apierror.ErrConflict, "transfer contention, retry the request", err.Error())
	default:
		return apierror.NewAPIError(apierror.ErrInternalServer, "error processing transfer", err.Error())
	}
}
