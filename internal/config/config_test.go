package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rvmaher/dermatouch-backend/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-0123456789")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "India", cfg.DefaultCountry)
	assert.Equal(t, "development", cfg.GoEnv)
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16")
}

func TestLoad_BcryptCostOutOfRange(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BCRYPT_COST", "99")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoad_BcryptCostNotANumber(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BCRYPT_COST", "abc")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_COUNTRY", "Japan")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "Japan", cfg.DefaultCountry)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestCloudinaryEnabled_RequiresAllThree(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.False(t, cfg.CloudinaryEnabled())

	t.Setenv("CLOUDINARY_API_SECRET", "secret")
	cfg, err = config.Load()
	assert.NoError(t, err)
	assert.True(t, cfg.CloudinaryEnabled())
}
