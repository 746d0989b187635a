package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/block-scheduler/internal/config"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir() + "/tokens"}

	missing, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save("test", token))

	info, err := os.Stat(store.path("test"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	loaded, err := store.Load("test")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))

	require.NoError(t, store.Delete("test"))
	require.NoError(t, store.Delete("test"))

	gone, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTokenStore_CorruptFile(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(store.path("prod"), []byte("{not json"), 0600))

	_, err := store.Load("prod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token file")
}

func TestCheckScopes(t *testing.T) {
	assert.NoError(t, checkScopes([]string{"openid", ScopeSheetsReadonly}))
	assert.NoError(t, checkScopes([]string{"https://www.googleapis.com/auth/spreadsheets"}))
	assert.Error(t, checkScopes([]string{"https://www.googleapis.com/auth/gmail.send"}))
	assert.Error(t, checkScopes(nil))
}

func TestGetOAuthConfig(t *testing.T) {
	cfg := &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:                "id.apps.googleusercontent.com",
		ProjectID:               "block-scheduler",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "secret",
		RedirectURIs:            []string{"http://localhost"},
	}}

	oauthConfig, err := GetOAuthConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{ScopeSheetsReadonly}, oauthConfig.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", oauthConfig.RedirectURL)
	assert.Equal(t, "id.apps.googleusercontent.com", oauthConfig.ClientID)
}
