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

package deltalog

import "errors"

var (
	// ErrInvalidArgument is a general sentinel for misuse of an API,
	// wrapped with details at the call site.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPartitionColumn indicates a partition column that is
	// absent from the schema or has a type that cannot be partitioned on.
	ErrInvalidPartitionColumn = errors.New("invalid partition column")

	// ErrSchemaMismatch indicates incoming data whose schema differs from
	// the table schema while strict schema checking is in effect.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrPartitionColumnMismatch indicates an attempt to change a table's
	// partition columns without overwriting the table.
	ErrPartitionColumnMismatch = errors.New("partition column mismatch")

	// ErrInvalidConfiguration indicates a write configuration whose options
	// are individually valid but mutually inconsistent.
	ErrInvalidConfiguration = errors.New("invalid write configuration")

	// ErrTableAlreadyExists is returned by mode "error" when the target
	// table already has at least one committed version.
	ErrTableAlreadyExists = errors.New("table already exists")

	// ErrNoSuchTable is returned when reading a location that holds no
	// transaction log.
	ErrNoSuchTable = errors.New("table does not exist")

	// ErrConcurrentModification indicates that another writer committed
	// the version this transaction was about to claim. The commit is not
	// retried; retrying is the caller's decision.
	ErrConcurrentModification = errors.New("concurrent table modification")

	// ErrCommitFailed wraps storage-layer failures from the durable
	// commit step.
	ErrCommitFailed = errors.New("commit failed")
)
