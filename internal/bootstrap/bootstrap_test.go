package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		cfg      config.SourceConfig
		wantName string
		wantErr  bool
	}{
		{name: "file", cfg: config.SourceConfig{Kind: config.SourceFile, Path: "data/incidents.json"}, wantName: "file:incidents.json"},
		{name: "http", cfg: config.SourceConfig{Kind: config.SourceHTTP, URL: "https://itsm.example.com/export"}, wantName: "http:itsm.example.com"},
		{name: "postgres without pool", cfg: config.SourceConfig{Kind: config.SourcePostgres}, wantErr: true},
		{name: "unknown", cfg: config.SourceConfig{Kind: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(tt.cfg, nil, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, src.Name())
		})
	}
}

func TestOptionalBackendsDisabled(t *testing.T) {
	pool, err := OpenPool(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, pool)

	assert.Nil(t, OpenCache(context.Background(), config.RedisConfig{}, slog.Default()))
}
