package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront"},
		JWT: config.JWTConfig{
			Secret:             "a-very-long-test-secret-with-32-plus-chars",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	token, err := m.GenerateAccessToken(7, "ivan@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ivan@example.com", claims.Email)

	_, err = m.ValidateRefreshToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager(testConfig())
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.GenerateAccessToken(7, "ivan@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestTokenWithOtherSecretRejected(t *testing.T) {
	token, err := NewJWTManager(testConfig()).GenerateRefreshToken(7, "ivan@example.com")
	require.NoError(t, err)

	other := testConfig()
	other.JWT.Secret = "another-long-secret-value-for-the-test-suite"
	_, err = NewJWTManager(other).ValidateRefreshToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestValidatePassword(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost)

	tests := []struct {
		password string
		valid    bool
	}{
		{"Str0ng!Pw", true},
		{"short1!", false},
		{"alllower1!", false},
		{"NoDigits!!x", false},
		{"NoSpecial12", false},
		{"MyPassword1!", false},
		{"Baaad1!xyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := p.ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost)

	hash, err := p.HashPassword("Str0ng!Pw")
	require.NoError(t, err)
	assert.NoError(t, p.VerifyPassword("Str0ng!Pw", hash))
	assert.Error(t, p.VerifyPassword("wrong", hash))
}

func TestGenerateTemporaryPassword(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost)

	plain, hash, err := p.GenerateTemporaryPassword()
	require.NoError(t, err)
	assert.Len(t, plain, 15)
	assert.NoError(t, p.VerifyPassword(plain, hash))

	other, _, err := p.GenerateTemporaryPassword()
	require.NoError(t, err)
	assert.NotEqual(t, plain, other)
}
