// Copyright 2025 Google LLC
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

// Package capability grants access to the privileged mutation surface of the IR.
//
// Only packages rooted at the ir directory can import this package.
// The compute-at fix-up pass and the structural mutator hold a token.
package capability

// Token proves that its holder is allowed to call privileged IR functions.
type Token struct {
	_ struct{}
}

// Grant returns a token.
func Grant() Token {
	return Token{}
}
