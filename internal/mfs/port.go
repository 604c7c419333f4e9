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

package mfs

import (
	"fmt"

	"monofs/internal/util"
)

// NoAvailablePortsError reports an exhausted port scan.
type NoAvailablePortsError struct {
	Host  string
	Start int
	End   int
}

func (e *NoAvailablePortsError) Error() string {
	return fmt.Sprintf("no available ports on %s in range [%d, %d]", e.Host, e.Start, e.End)
}

// FindAvailablePort scans [start, start+rangeWidth] on host and returns the
// first port that can be bound. The bind is released immediately; the caller
// races anything else grabbing ports on the same host, which is acceptable
// for a loopback dev setup.
func FindAvailablePort(host string, start, rangeWidth int) (int, error) {
	end := start + rangeWidth
	for port := start; port <= end; port++ {
		if util.IsPortFree(host, port) {
			return port, nil
		}
	}
	return 0, &NoAvailablePortsError{Host: host, Start: start, End: end}
}
