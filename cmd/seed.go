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
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// seedCommands bulk-loads checking accounts from a CSV file into the
// configured store.
func seedCommands(b *corebankInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [csv file]",
		Short: "seed accounts from a csv file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			f, err := os.Open(args[0])
			if err != nil {
				logrus.Fatalf("opening seed file: %v", err)
			}
			defer func() {
				_ = f.Close()
			}()

			loaded, err := b.service.LoadAccountsFromCSV(context.Background(), f)
			if err != nil {
				logrus.Fatalf("seeding accounts: %v", err)
			}
			logrus.Infof("loaded %d accounts", loaded)
		},
	}
	return cmd
}
