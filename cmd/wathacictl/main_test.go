package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wathaci/internal/domain"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestParsePlan(t *testing.T) {
	code, err := parsePlan(" Professional ")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanProfessional, code)

	_, err = parsePlan("gold")
	assert.ErrorContains(t, err, "unsupported plan")
}

func TestPlanSetValidatesBeforeConnecting(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, _, err := run(t, "plan", "set", "gold", "--email", "a@b.zm")
	assert.ErrorContains(t, err, "unsupported plan")

	_, _, err = run(t, "plan", "set", "basic")
	assert.ErrorContains(t, err, "--id or --email")

	_, _, err = run(t, "plan", "set", "basic", "--email", "a@b.zm")
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestLintSQLCommand(t *testing.T) {
	out, _, err := run(t, "lint-sql", "../../internal/sqlinline")
	require.NoError(t, err)
	assert.Contains(t, out, "sql markers ok")
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "status"},
		{"plan", "set"},
		{"credentials", "set"},
		{"credentials", "list"},
		{"crawl"},
		{"lint-sql"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
