package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/repository/memory"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMigrator struct {
	calls []string
}

func (m *fakeMigrator) Up(context.Context) error     { m.calls = append(m.calls, "up"); return nil }
func (m *fakeMigrator) Down(context.Context) error   { m.calls = append(m.calls, "down"); return nil }
func (m *fakeMigrator) Status(context.Context) error { m.calls = append(m.calls, "status"); return nil }
func (m *fakeMigrator) Version(context.Context) (int64, error) {
	return 2, nil
}

func setup(t *testing.T, password string) (*commandLine, *fakeMigrator, *memory.Store, *bytes.Buffer) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPasswordFunc = orig })

	store := memory.NewStore()
	mg := &fakeMigrator{}
	out := &bytes.Buffer{}
	cli := &commandLine{
		migrator: mg,
		admins:   service.NewAuthService(store.Admins, nil, "secret", time.Hour, zap.NewNop()),
		out:      out,
	}
	return cli, mg, store, out
}

func Test_commandLine_migrate(t *testing.T) {
	cli, mg, _, out := setup(t, "")
	ctx := context.Background()

	require.NoError(t, cli.run(ctx, []string{"manage", "migrate"}))
	require.NoError(t, cli.run(ctx, []string{"manage", "migrate", "down"}))
	require.NoError(t, cli.run(ctx, []string{"manage", "migrate", "status"}))
	assert.Equal(t, []string{"up", "down", "status"}, mg.calls)
	assert.Contains(t, out.String(), "current version: 2")

	assert.ErrorIs(t, cli.run(ctx, []string{"manage", "migrate", "redo"}), errHelp)
	assert.ErrorIs(t, cli.run(ctx, []string{"manage"}), errHelp)
}

func Test_commandLine_addUser(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		password string
		wantErr  error
		wantRole model.Role
	}{
		{name: "admin", args: []string{"-email", "Ops@Example.com", "-name", "Ops"}, password: "long-password", wantRole: model.RoleAdmin},
		{name: "tutor", args: []string{"-email", "jane@example.com", "-role", "tutor", "-tutor-id", "3"}, password: "long-password", wantRole: model.RoleTutor},
		{name: "no email", args: []string{"-name", "Ops"}, password: "long-password", wantErr: errHelp},
		{name: "empty password", args: []string{"-email", "ops@example.com"}, password: "", wantErr: errHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, store, _ := setup(t, tt.password)
			ctx := context.Background()

			err := cli.run(ctx, append([]string{"manage", "adduser"}, tt.args...))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			admin, err := store.Admins.GetByEmail(ctx, tt.args[1])
			require.NoError(t, err)
			require.NotNil(t, admin)
			assert.Equal(t, tt.wantRole, admin.Role)
			assert.NoError(t, admin.CheckPassword(tt.password))
		})
	}

	t.Run("tutor without id", func(t *testing.T) {
		cli, _, _, _ := setup(t, "long-password")
		err := cli.run(context.Background(), []string{"manage", "adduser", "-email", "x@example.com", "-role", "tutor"})
		assert.True(t, model.IsValidation(err))
	})
}
