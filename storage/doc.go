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


// Package storage defines the persistence interfaces of resumatch and the
// binary serialization of stored records.
//
// Two stores back the engine:
//
//   - VectorStore: one collection per document section, holding embedded
//     keyword-tagged chunks; supports idempotent collection bootstrap,
//     point writes, filtered nearest-neighbor search, per-document payload
//     fetch and per-document deletion.
//   - DocumentStore: the structured document snapshots plus the role
//     lookup that implements the candidate filter contract.
//
// The badger sub-package provides the BadgerDB implementation of both.
// Serialization uses the MUS binary format via hand-written serializers.
package storage
