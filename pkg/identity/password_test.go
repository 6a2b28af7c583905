package identity_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantcore/pkg/identity"
)

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		hash, err := identity.HashPassword("s3cret-passw0rd")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret-passw0rd", hash)

		assert.NoError(t, identity.VerifyPassword(hash, "s3cret-passw0rd"))
		assert.ErrorIs(t, identity.VerifyPassword(hash, "wrong"), identity.ErrInvalidCredentials)
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		_, err := identity.HashPassword(strings.Repeat("a", 100))
		assert.ErrorIs(t, err, identity.ErrPasswordTooLong)
	})
}
