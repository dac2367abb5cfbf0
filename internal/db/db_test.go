package db

import (
	"context"
	"testing"

	"github.com/brrowapp/brrow-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "host and port",
			cfg:  config.Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3307", DBName: "brrow"},
			want: "u:p@tcp(db:3307)/brrow?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "already wrapped",
			cfg:  config.Config{DBUser: "u", DBPassword: "p", DBHost: "tcp(10.0.0.1:3306)", DBName: "brrow"},
			want: "u:p@tcp(10.0.0.1:3306)/brrow?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "socket path",
			cfg:  config.Config{DBUser: "u", DBPassword: "p", DBHost: "/var/run/mysqld.sock", DBName: "brrow"},
			want: "u:p@unix(/var/run/mysqld.sock)/brrow?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "cloud sql",
			cfg:  config.Config{DBUser: "u", DBPassword: "p", DBHost: "ignored", DBName: "brrow", InstanceConnectionName: "proj:region:inst"},
			want: "u:p@unix(/cloudsql/proj:region:inst)/brrow?charset=utf8mb4&parseTime=True&loc=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDSN(&tt.cfg))
		})
	}
}

func TestNewGormLogger(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gl := NewGormLogger(zap.New(core))

	gl.Warn(context.Background(), "slow %s", "query")
	gl.Info(context.Background(), "ignored")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "gorm", entry.LoggerName)
	assert.Contains(t, entry.Message, "slow query")
}
