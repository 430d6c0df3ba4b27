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
	"net/http"

	"github.com/gin-gonic/gin"

	corebank "github.com/corebank-io/corebank"
)

type Api struct {
	service *corebank.Corebank
	router  *gin.Engine
}

func NewAPI(service *corebank.Corebank) *Api {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, "running")
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, "ready")
	})

	return &Api{service: service, router: r}
}

func (a *Api) Router() *gin.Engine {
	router := a.router

	router.GET("/core-banking/accounts/:id", a.GetAccount)
	router.POST("/core-banking/local-transfers", a.LocalTransfer)
	router.POST("/core-banking/_internal/seed/", a.SeedAccounts)

	return a.router
}
