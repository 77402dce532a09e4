package identitysvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:   "Darasa",
		SecretKey: "secret",
		TestMode:  true,
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
		},
	}
}

func TestToken_roundTrip(t *testing.T) {
	conf := newTestConfig()
	claims := NewClaims(conf, "abc", "awe", "awe@test.cd", false)

	token, err := GenerateToken(conf, claims)
	require.NoError(t, err)

	sess, err := ParseToken(conf, token)
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "abc", sess.Identity())
	assert.Equal(t, "awe@test.cd", sess.Email())
	assert.Equal(t, token, sess.Token())
	assert.False(t, sess.IsAdmin())
}

func TestToken_adminClaims(t *testing.T) {
	conf := newTestConfig()
	claims := NewClaims(conf, "root", "root", "root@test.cd", true, "admin:")

	token, err := GenerateToken(conf, claims)
	require.NoError(t, err)

	sess, err := ParseToken(conf, token)
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
}

func TestParseToken_rejects(t *testing.T) {
	conf := newTestConfig()

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken(conf, "lol")
		assert.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := newTestConfig()
		other.SecretKey = "not-the-secret"
		token, err := GenerateToken(other, NewClaims(other, "abc", "awe", "", false))
		require.NoError(t, err)

		_, err = ParseToken(conf, token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := newTestConfig()
		expired.Server.JWTExpirationDelta = -time.Minute
		token, err := GenerateToken(expired, NewClaims(expired, "abc", "awe", "", false))
		require.NoError(t, err)

		_, err = ParseToken(conf, token)
		assert.Error(t, err)
	})
}

func TestAnonymous(t *testing.T) {
	sess := Anonymous()
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.Identity())
	assert.Empty(t, sess.Token())
}
