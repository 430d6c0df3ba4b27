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

package model

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateIDWithPrefix generates a time-ordered UUIDv7 with a module name
// as prefix (e.g. "txn_0190..."). V7 ids sort by creation time, which keeps
// transaction ids monotonically sortable across the process.
func GenerateIDWithPrefix(module string) string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to v4.
		id = uuid.New()
	}
	return fmt.Sprintf("%s_%s", module, id.String())
}
