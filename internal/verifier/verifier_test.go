package verifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/verifier"
)

func TestIdenticalContentPasses(t *testing.T) {
	v := verifier.New("1,2,3\n4,5,6\n")
	r := v.Verify("1,2,3\n4,5,6\n")
	assert.True(t, r.Passed)
	assert.Empty(t, r.Mismatches)
}

func TestCommentLinesAreIgnoredOnBothSides(t *testing.T) {
	ref := "# generated 2026-01-01\n1,2,3\n"
	v := verifier.New(ref)
	r := v.Verify("# generated 2026-07-29\n1,2,3\n")
	assert.True(t, r.Passed)
}

func TestMismatchIsReportedWithLineNumber(t *testing.T) {
	v := verifier.New("1,2,3\n4,5,6\n")
	r := v.Verify("1,2,3\n4,5,7\n")
	require.False(t, r.Passed)
	require.Len(t, r.Mismatches, 1)
	assert.Equal(t, 2, r.Mismatches[0].Line)
}

func TestMutatingSourceAfterConstructionDoesNotAffectVerifier(t *testing.T) {
	ref := []byte("1,2,3\n")
	v := verifier.New(string(ref))
	ref[0] = '9' // mutate caller's buffer; Verifier holds its own copy
	r := v.Verify("1,2,3\n")
	assert.True(t, r.Passed)
}
