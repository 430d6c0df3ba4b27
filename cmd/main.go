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
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	corebank "github.com/corebank-io/corebank"
	"github.com/corebank-io/corebank/config"
)

// Corebank represents the CLI application, encapsulating the root Cobra command.
type Corebank struct {
	cmd *cobra.Command
}

// corebankInstance holds the service instance and its configuration for
// use by subcommands.
type corebankInstance struct {
	service *corebank.Corebank
	cnf     *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and initializes the service before any
// subcommand executes.
func preRun(app *corebankInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			configFile = "corebank.json"
		}
		if err := config.InitConfig(configFile); err != nil {
			log.Fatal("error loading config ", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		service, err := corebank.NewCorebank()
		if err != nil {
			log.Fatal(err)
		}

		app.service = service
		app.cnf = cnf
		return nil
	}
}

// NewCLI creates the command-line interface for the corebank service.
func NewCLI() *Corebank {
	var configFile string
	b := &corebankInstance{}

	var rootCmd = &cobra.Command{
		Use:   "corebank",
		Short: "Core-banking ledger simulator",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./corebank.json", "Configuration file for the corebank service")
	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(seedCommands(b))

	return &Corebank{cmd: rootCmd}
}

func (w Corebank) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
