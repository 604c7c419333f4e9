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

package common

import (
	"fmt"
	"strings"
)

// Segment is a single validated path component. A Segment is never empty,
// never contains a path separator, and is never "." or "..".
type Segment string

// NewSegment validates s and returns it as a Segment.
func NewSegment(s string) (Segment, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty segment", ErrInvalidPathComponent)
	}
	if s == "." || s == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPathComponent, s)
	}
	if strings.ContainsAny(s, "/\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPathComponent, s)
	}
	return Segment(s), nil
}

func (s Segment) String() string { return string(s) }

// SplitSegments splits a slash-separated path into validated segments and
// reports whether the path carried a leading root marker. Empty components
// from doubled slashes are dropped; any other invalid component fails.
func SplitSegments(path string) (segments []Segment, rooted bool, err error) {
	rooted = strings.HasPrefix(path, "/")
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		seg, err := NewSegment(part)
		if err != nil {
			return nil, rooted, err
		}
		segments = append(segments, seg)
	}
	return segments, rooted, nil
}

// JoinSegments renders segments as a slash-separated relative path.
func JoinSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = string(s)
	}
	return strings.Join(parts, "/")
}
