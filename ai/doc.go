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


// Package ai provides abstractions for the embedding services used in ledgerfind.
//
// The core domain and retrieval logic depend only on the Embedder interface,
// never on a concrete provider. Two implementation sub-packages ship with the
// module:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles for unit testing without a network
//
// Public constructors return the interface type to enforce the abstraction;
// mock constructors return concrete types so tests can inject behavior and
// assert call counts.
//
// Rate limiting is reported through the typed sentinel ErrRateLimited so
// higher layers can apply a single bounded retry; every other provider error
// is propagated as-is.
package ai
