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

package table

const (
	// WriteObjectStorageEnabledKey selects the hashed data file layout
	// that spreads files across entropy directories instead of
	// partition-value paths.
	WriteObjectStorageEnabledKey     = "write.object-storage.enabled"
	WriteObjectStorageEnabledDefault = false

	// WriteDataPathKey overrides where data files are placed, for tables
	// whose data lives outside the table root.
	WriteDataPathKey = "write.data.path"

	// WriteTargetWorkersKey bounds the fanout writer's parallelism.
	WriteTargetWorkersKey     = "write.workers"
	WriteTargetWorkersDefault = 4

	ParquetCompressionKey     = "write.parquet.compression-codec"
	ParquetCompressionDefault = "snappy"
)
