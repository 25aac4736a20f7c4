// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package embedding

import (
	"errors"
	"fmt"

	"github.com/poiesic/ledgerfind/core"
)

var (
	// ErrUnsupportedEntity indicates an entity type the generator cannot
	// build canonical text for.
	ErrUnsupportedEntity = errors.New("unsupported entity type")

	// ErrAllFailed indicates every entity in a batch failed to embed.
	ErrAllFailed = errors.New("all embeddings failed")

	// ErrDimensionMismatch indicates the provider returned a vector of the
	// wrong length for the configured model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// GenerationError reports a failure to embed one entity. Batch operations
// collect these per item so one bad entity never sinks its chunk.
type GenerationError struct {
	EntityType core.EntityType
	EntityId   core.ID
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("embedding %s %d: %v", e.EntityType, e.EntityId, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
