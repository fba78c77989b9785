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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deltalog/deltalog-go"
	"github.com/twmb/murmur3"
)

const (
	logDirName = "_delta_log"

	hashBinaryStringBits = 20
	entropyDirLength     = 4
	entropyDirDepth      = 3
)

// LocationProvider decides where a table's physical files live relative to
// its root location.
type LocationProvider interface {
	// NewDataLocation returns the full path for a new data file belonging
	// to the given partition.
	NewDataLocation(key deltalog.PartitionKey, dataFileName string) string
	// NewCommitLocation returns the full path of the commit file for a
	// version.
	NewCommitLocation(version int64) string
}

// LoadLocationProvider selects a provider from the table's properties.
func LoadLocationProvider(tableLocation string, props deltalog.Properties) LocationProvider {
	simple := &simpleLocationProvider{
		tableLoc: strings.TrimSuffix(tableLocation, "/"),
		dataPath: props.Get(WriteDataPathKey, strings.TrimSuffix(tableLocation, "/")),
	}

	if props.GetBool(WriteObjectStorageEnabledKey, WriteObjectStorageEnabledDefault) {
		return &objectStoreLocationProvider{simpleLocationProvider: simple}
	}

	return simple
}

// simpleLocationProvider places data files under hive-style partition
// directories at the table root (or the configured data path).
type simpleLocationProvider struct {
	tableLoc string
	dataPath string
}

func (slp *simpleLocationProvider) NewDataLocation(key deltalog.PartitionKey, dataFileName string) string {
	if p := key.Path(); p != "" {
		return slp.dataPath + "/" + p + "/" + dataFileName
	}

	return slp.dataPath + "/" + dataFileName
}

func (slp *simpleLocationProvider) NewCommitLocation(version int64) string {
	return fmt.Sprintf("%s/%s/%020d.json", slp.tableLoc, logDirName, version)
}

// objectStoreLocationProvider prefixes data file paths with murmur3-derived
// entropy directories, spreading files across prefixes on object stores
// that throttle per-prefix request rates.
type objectStoreLocationProvider struct {
	*simpleLocationProvider
}

func (oslp *objectStoreLocationProvider) NewDataLocation(key deltalog.PartitionKey, dataFileName string) string {
	hashed := computeHash(dataFileName)
	if p := key.Path(); p != "" {
		return fmt.Sprintf("%s/%s/%s/%s", oslp.dataPath, hashed, p, dataFileName)
	}

	return fmt.Sprintf("%s/%s/%s", oslp.dataPath, hashed, dataFileName)
}

func computeHash(dataFileName string) string {
	// Bitwise AND to combat sign-extension; bitwise OR to preserve leading zeroes
	topMask := 1 << hashBinaryStringBits
	hashCode := int(murmur3.Sum32([]byte(dataFileName)))&(topMask-1) | topMask

	binaryStr := strconv.FormatInt(int64(hashCode), 2)

	return dirsFromHash(binaryStr[len(binaryStr)-hashBinaryStringBits:])
}

func dirsFromHash(fileHash string) string {
	totalEntropyLength := entropyDirDepth * entropyDirLength

	hashWithDirs := make([]string, 0, entropyDirDepth+1)
	for i := 0; i < totalEntropyLength; i += entropyDirLength {
		hashWithDirs = append(hashWithDirs, fileHash[i:i+entropyDirLength])
	}

	if len(fileHash) > totalEntropyLength {
		hashWithDirs = append(hashWithDirs, fileHash[totalEntropyLength:])
	}

	return strings.Join(hashWithDirs, "/")
}
