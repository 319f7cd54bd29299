package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_UsesConfiguredTTL(t *testing.T) {
	ttl := 2 * time.Hour
	tm := NewTokenManager("test-secret", ttl)

	start := time.Now()

	token, err := tm.GenerateToken("ops@example.com", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	expectedExpiry := start.Add(ttl)
	assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, 2*time.Second)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.True(t, claims.IsAdmin())
}

func TestTokenManager_ValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	viewer, err := tm.GenerateToken("viewer", RoleViewer)
	require.NoError(t, err)
	otherSecret, err := NewTokenManager("other-secret", time.Hour).GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)
	expired, err := NewTokenManager("test-secret", time.Nanosecond).GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)
	time.Sleep(time.Second)

	foreignIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		wantErr   bool
		wantAdmin bool
	}{
		{name: "viewer token", token: viewer},
		{name: "wrong secret", token: otherSecret, wantErr: true},
		{name: "expired", token: expired, wantErr: true},
		{name: "foreign issuer", token: foreignIssuer, wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tm.ValidateToken(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAdmin, claims.IsAdmin())
		})
	}
}
