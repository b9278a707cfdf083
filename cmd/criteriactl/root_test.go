package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/krew-solutions/ascetic-dsl-go/asceticdsl/sqlsafe"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDecode(t *testing.T) {
	out, err := run(t, "decode", "--format", "json", "name==bob,()status^^a b,!@deletedAt")
	require.NoError(t, err)

	var views []predicateView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.Equal(t, []predicateView{
		{Field: "name", Operator: "equal", Value: "bob"},
		{Field: "status", Operator: "in", Values: []string{"a", "b"}, OrGroup: true},
		{Field: "deletedAt", Operator: "is_not_null"},
	}, views)
}

func TestDecodeYAML(t *testing.T) {
	out, err := run(t, "decode", "active")
	require.NoError(t, err)

	var views []predicateView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "active", views[0].Field)
}

func TestCount(t *testing.T) {
	out, err := run(t, "count", "--format", "json", "a==1,b==2,!c")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, out)

	_, err = run(t, "count", "a==%zz")
	assert.Error(t, err)
}

func TestSQL(t *testing.T) {
	out, err := run(t, "sql", "--format", "json", "--table", "users",
		"--sort", "createdAt:desc", "--page", "1", "--size", "10", "--fields", "id,email",
		"email~~example,age>=18")
	require.NoError(t, err)

	var view compiledView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t,
		`SELECT id, email FROM users WHERE email ILIKE $1 ESCAPE '\' AND age >= $2 ORDER BY created_at DESC LIMIT 10 OFFSET 10`,
		view.SQL)
	assert.Equal(t, []any{"%example%", "18"}, view.Params)

	out, err = run(t, "sql", "--format", "json", "--table", "users", "--count", "active")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "SELECT count(*) FROM users WHERE active = TRUE", view.SQL)
	assert.Empty(t, view.Params)

	_, err = run(t, "sql", "--table", "users", "a==1,()b==2")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	out, err := run(t, "diff", "--format", "json", "a==1,b==2", "a==1,c==3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"equal":false,"added":["c==3"],"removed":["b==2"]}`, out)

	out, err = run(t, "diff", "--format", "json", "a==1", "a%3D%3D1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"equal":true}`, out)
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "--format", "json", "spring boot")
	require.NoError(t, err)
	assert.JSONEq(t, `{"safe":true}`, out)

	out, err = run(t, "check", "--format", "json", "x'; DROP TABLE users; --")
	assert.ErrorIs(t, err, sqlsafe.ErrInjection)
	assert.JSONEq(t, `{"safe":false,"construct":"; DROP"}`, out)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "count", "--format", "xml", "a")
	assert.Error(t, err)
}
