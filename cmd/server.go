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

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corebank-io/corebank/api"
)

// serverCommands starts the HTTP server and the outbox flush cycle, and
// shuts both down cleanly on SIGINT/SIGTERM. The flusher stops last so
// the final drain sees everything the handlers enqueued.
func serverCommands(b *corebankInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start corebank server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			router := api.NewAPI(b.service).Router()
			server := &http.Server{
				Addr:              ":" + b.cnf.Server.Port,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			b.service.Start(ctx)

			go func() {
				logrus.Infof("starting server on port %s", b.cnf.Server.Port)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logrus.Fatalf("failed to start server: %v", err)
				}
			}()

			<-ctx.Done()
			logrus.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logrus.Errorf("server shutdown: %v", err)
			}

			b.service.Shutdown()
		},
	}
	return cmd
}
