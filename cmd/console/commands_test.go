package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { auth.HashCost = bcrypt.MinCost }

func newMockCommands(t *testing.T, cfg *config.Config) (*commands, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	notes := &bytes.Buffer{}
	c, cleanup, err := setup(context.Background(), cfg, true, notes)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	out := &bytes.Buffer{}
	return &commands{console: c, out: out}, out, notes
}

func mockConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Console.SessionFile = filepath.Join(t.TempDir(), "session.json")
	return cfg
}

func TestCommands_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := mockConfig(t)

	cmd, out, _ := newMockCommands(t, cfg)
	require.NoError(t, cmd.run(ctx, "login", []string{"-u", "manager", "-p", memory.DemoPassword}))
	assert.Contains(t, out.String(), "signed in as manager")

	// A second process reuses the stored token.
	cmd2, out2, _ := newMockCommands(t, cfg)
	require.NoError(t, cmd2.run(ctx, "list", []string{"campaigns", "-status", "active"}))
	assert.Contains(t, out2.String(), "Spring")
	assert.Contains(t, out2.String(), "2 total")

	require.NoError(t, cmd2.run(ctx, "logout", nil))
	cmd3, _, _ := newMockCommands(t, cfg)
	assert.Error(t, cmd3.run(ctx, "whoami", nil))
}

func TestCommands_Export(t *testing.T) {
	ctx := context.Background()
	cmd, out, notes := newMockCommands(t, mockConfig(t))
	require.NoError(t, cmd.run(ctx, "login", []string{"-u", "admin", "-p", memory.DemoPassword}))

	dir := t.TempDir()
	require.NoError(t, cmd.run(ctx, "export", []string{"vouchers", "-o", dir, "-campaign", "cmp-welcome"}))
	assert.Contains(t, out.String(), "wrote 6 rows")
	assert.Contains(t, notes.String(), "success: Exported 6 vouchers")

	matches, err := filepath.Glob(filepath.Join(dir, "vouchers-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\ufeff"))
}

func TestCommands_ExportNeedsPermission(t *testing.T) {
	ctx := context.Background()
	cmd, _, _ := newMockCommands(t, mockConfig(t))
	require.NoError(t, cmd.run(ctx, "login", []string{"-u", "viewer", "-p", memory.DemoPassword}))
	assert.Error(t, cmd.run(ctx, "export", []string{"customers", "-o", t.TempDir()}))
}

func TestCommands_QRAndRedeem(t *testing.T) {
	ctx := context.Background()
	cmd, out, _ := newMockCommands(t, mockConfig(t))
	require.NoError(t, cmd.run(ctx, "login", []string{"-u", "operator", "-p", memory.DemoPassword}))

	path := filepath.Join(t.TempDir(), "v.png")
	require.NoError(t, cmd.run(ctx, "qr", []string{"SPRING-0002", "-o", path}))
	png, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	require.NoError(t, cmd.run(ctx, "redeem", []string{"SPRING-0002", "-order", "ORD-1"}))
	assert.Contains(t, out.String(), "SPRING-0002 is now used")
}

func TestCommands_Usage(t *testing.T) {
	cmd, _, _ := newMockCommands(t, mockConfig(t))
	assert.ErrorIs(t, cmd.run(context.Background(), "frobnicate", nil), errUsage)
	assert.ErrorIs(t, cmd.run(context.Background(), "get", []string{"voucher"}), errUsage)
}
