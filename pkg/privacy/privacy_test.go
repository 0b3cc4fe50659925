package privacy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIgnoreIsIdempotent(t *testing.T) {
	l := New("alice@example.net")
	require.True(t, l.Ignore("spammer@example.net"))
	require.False(t, l.Ignore("spammer@example.net"))
	require.True(t, l.IsIgnored("spammer@example.net"))
	require.Equal(t, 1, l.Len())
}

func TestUnignoreAbsentIsNoop(t *testing.T) {
	l := New("alice@example.net")
	require.False(t, l.Unignore("nobody@example.net"))
	require.Equal(t, 0, l.Len())

	l.Ignore("spammer@example.net")
	require.True(t, l.Unignore("spammer@example.net"))
	require.False(t, l.IsIgnored("spammer@example.net"))
}

func TestIgnoreEmptyAddressRejected(t *testing.T) {
	l := New("alice@example.net")
	require.False(t, l.Ignore(""))
	require.Equal(t, 0, l.Len())
}

func TestAddressesSortedSnapshot(t *testing.T) {
	l := New("alice@example.net")
	l.Ignore("zed@example.net")
	l.Ignore("bob@example.net")
	l.Ignore("mia@example.net")
	require.Equal(t, []string{"bob@example.net", "mia@example.net", "zed@example.net"}, l.Addresses())

	// snapshot is detached from the live set
	addrs := l.Addresses()
	l.Ignore("aaa@example.net")
	require.Len(t, addrs, 3)
}
