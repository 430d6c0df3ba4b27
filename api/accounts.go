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

	"github.com/corebank-io/corebank/internal/apierror"
	"github.com/corebank-io/corebank/ledger"
)

// GetAccount returns the current state of a checking account.
func (a *Api) GetAccount(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	account, err := a.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			apiErr := apierror.NewAPIError(apierror.ErrNotFound, "account not found", err.Error())
			c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		apiErr := apierror.NewAPIError(apierror.ErrInternalServer, "error fetching account", err.Error())
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	c.JSON(http.StatusOK, account)
}

// SeedAccounts bulk-loads accounts from an uploaded CSV file. Malformed
// rows are skipped by the loader; the response reports how many rows
// became accounts.
func (a *Api) SeedAccounts(c *gin.Context) {
	fileHeader, err := c.FormFile("upload_file")
	if err != nil {
		apiErr := apierror.NewAPIError(apierror.ErrBadRequest, "upload_file is required", err.Error())
		c.JSON(http.StatusBadRequest, apiErr)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apiErr := apierror.NewAPIError(apierror.ErrInternalServer, "error reading upload", err.Error())
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	loaded, err := a.service.LoadAccountsFromCSV(c.Request.Context(), file)
	if err != nil {
		apiErr := apierror.NewAPIError(apierror.ErrInternalServer, "error loading accounts", err.Error())
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loaded": loaded})
}
