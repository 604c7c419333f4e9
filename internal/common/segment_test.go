package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "foo", false},
		{"dotted_name", "a.txt", false},
		{"hidden", ".config", false},
		{"unicode", "héllo", false},
		{"spaces", "my file", false},

		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b", true},
		{"leading_slash", "/a", true},
		{"nul", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			seg, err := NewSegment(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPathComponent, "NewSegment(%q)", tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, seg.String())
		})
	}
}

func TestSplitSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		want       []Segment
		wantRooted bool
		wantErr    bool
	}{
		{"empty", "", nil, false, false},
		{"root_only", "/", nil, true, false},
		{"simple", "foo", []Segment{"foo"}, false, false},
		{"nested", "foo/bar/baz", []Segment{"foo", "bar", "baz"}, false, false},
		{"rooted", "/foo/bar", []Segment{"foo", "bar"}, true, false},
		{"double_slash", "foo//bar", []Segment{"foo", "bar"}, false, false},
		{"trailing_slash", "foo/bar/", []Segment{"foo", "bar"}, false, false},

		{"dot_component", "foo/./bar", nil, false, true},
		{"dotdot_component", "foo/../bar", nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			segs, rooted, err := SplitSegments(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPathComponent, "SplitSegments(%q)", tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, segs)
			assert.Equal(t, tt.wantRooted, rooted)
		})
	}
}

func TestJoinSegments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", JoinSegments(nil))
	assert.Equal(t, "foo", JoinSegments([]Segment{"foo"}))
	assert.Equal(t, "foo/bar/baz", JoinSegments([]Segment{"foo", "bar", "baz"}))
}
