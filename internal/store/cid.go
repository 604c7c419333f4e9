// Copyright 2025 MonoFS Authors
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

package store

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// cidPrefix identifies the hash function; the only supported value today.
const cidPrefix = "b3"

// cidHexLen is the hex length of a blake3-256 digest.
const cidHexLen = 64

// CID is a content identifier: a blake3-256 digest of an entity's serialized
// form, rendered as "b3<hex>". Two CIDs are equal iff they identify
// byte-identical serialized content.
type CID string

// ComputeCID hashes data and returns its content identifier.
func ComputeCID(data []byte) CID {
	sum := blake3.Sum256(data)
	return CID(cidPrefix + hex.EncodeToString(sum[:]))
}

// ParseCID validates the fixed "b3<hex>" format.
func ParseCID(s string) (CID, error) {
	if len(s) != len(cidPrefix)+cidHexLen || s[:len(cidPrefix)] != cidPrefix {
		return "", fmt.Errorf("malformed cid %q", s)
	}
	if _, err := hex.DecodeString(s[len(cidPrefix):]); err != nil {
		return "", fmt.Errorf("malformed cid %q: %w", s, err)
	}
	return CID(s), nil
}

func (c CID) String() string { return string(c) }

// Defined reports whether the CID is non-zero.
func (c CID) Defined() bool { return c != "" }
