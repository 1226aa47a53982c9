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


// Package access gates every corpus operation behind a single shared team
// credential.
//
// A Gate holds the configured user and a bcrypt hash of the password. Login
// returns a Session; operations in records and search reject sessions that
// are not Authorized with core.ErrUnauthorized.
//
//	gate, err := access.NewGate("DPL", access.WithPasswordHash(hash))
//	sess, err := gate.Login(user, password)
//	results, err := searcher.Search(ctx, sess, query, 3)
//
// The gate is a convenience check for a trusted internal tool. It does not
// implement accounts, lockout or session expiry.
package access
