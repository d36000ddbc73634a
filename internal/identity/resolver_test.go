package identity

import (
	"testing"

	"civic-pulse/internal/domain/poll"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(NewIPHasher("test-key"))

	t.Run("authenticated wins", func(t *testing.T) {
		id, err := r.Resolve(Request{UserID: "u1", SessionToken: "s1", ClientIP: "1.2.3.4"}, true)
		require.NoError(t, err)
		assert.Equal(t, poll.Authenticated{UserID: "u1"}, id)
		assert.Equal(t, poll.VoterUser, id.Kind())
	})

	t.Run("anonymous when allowed", func(t *testing.T) {
		id, err := r.Resolve(Request{SessionToken: "s1", ClientIP: "1.2.3.4"}, false)
		require.NoError(t, err)
		anon, ok := id.(poll.Anonymous)
		require.True(t, ok)
		assert.Equal(t, "s1", anon.SessionToken)
		assert.NotEqual(t, "1.2.3.4", anon.ClientIP)
		assert.Len(t, anon.ClientIP, 64)
		assert.True(t, anon.Complete())
	})

	t.Run("identity unavailable when auth required", func(t *testing.T) {
		_, err := r.Resolve(Request{SessionToken: "s1", ClientIP: "1.2.3.4"}, true)
		assert.ErrorIs(t, err, poll.ErrIdentityUnavailable)
	})

	t.Run("missing parts give an incomplete identity", func(t *testing.T) {
		id, err := r.Resolve(Request{ClientIP: "1.2.3.4"}, false)
		require.NoError(t, err)
		assert.False(t, id.(poll.Anonymous).Complete())
	})
}

func TestIPHasher(t *testing.T) {
	h := NewIPHasher("k1")

	assert.Equal(t, "", h.Hash(""))
	assert.Equal(t, h.Hash("1.2.3.4"), h.Hash(" 1.2.3.4 "))
	assert.Equal(t, h.Hash("1.2.3.4"), h.Hash("::ffff:1.2.3.4"))
	assert.NotEqual(t, h.Hash("1.2.3.4"), h.Hash("1.2.3.5"))
	assert.NotEqual(t, h.Hash("1.2.3.4"), NewIPHasher("k2").Hash("1.2.3.4"))

	long := NewIPHasher(string(make([]byte, 200)))
	assert.Len(t, long.Hash("10.0.0.1"), 64)
}
