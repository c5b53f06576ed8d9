package sqllint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLintSourceFlagsMissingMarker(t *testing.T) {
	src := "package q\n\nconst QBad = `select 1`\n\nconst QGood = `--sql 0972e3ed-12fc-40b9-9e69-5f5954eefbab\nselect 1`\n\nconst Label = \"plain text\"\n"

	vs, err := LintSource("q.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "QBad", vs[0].Name)
	assert.Equal(t, 3, vs[0].Line)
}

func TestLintSourceFlagsReusedMarker(t *testing.T) {
	src := "package q\n\nconst QOne = `--sql 0972e3ed-12fc-40b9-9e69-5f5954eefbab\nselect 1`\n\nconst QTwo = `--sql 0972e3ed-12fc-40b9-9e69-5f5954eefbab\nselect 2`\n"

	vs, err := LintSource("q.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "QTwo", vs[0].Name)
	assert.Contains(t, vs[0].Message, "QOne")
}

func TestRepositoryQueriesAreMarked(t *testing.T) {
	vs, err := Lint([]string{"../../sqlinline"})
	require.NoError(t, err)
	assert.Empty(t, vs)
}
