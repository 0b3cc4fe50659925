package roster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parley/pkg/models"
)

func TestAddOverwritesByAddress(t *testing.T) {
	r := New()
	r.Add(models.Identity{Address: "room@muc/bob", Role: models.RoleParticipant})
	r.Add(models.Identity{Address: "room@muc/bob", Role: models.RoleModerator})

	require.Equal(t, 1, r.Len())
	id, ok := r.Get("room@muc/bob")
	require.True(t, ok)
	require.Equal(t, models.RoleModerator, id.Role)
}

func TestAddEmptyAddressIgnored(t *testing.T) {
	r := New()
	r.Add(models.Identity{DisplayName: "ghost"})
	require.Equal(t, 0, r.Len())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	r := New()
	r.Add(models.Identity{Address: "room@muc/bob"})
	r.Remove("room@muc/carol")
	require.Equal(t, 1, r.Len())
	r.Remove("room@muc/bob")
	require.Equal(t, 0, r.Len())
}

func TestAllReturnsCopies(t *testing.T) {
	r := New()
	r.Add(models.Identity{Address: "room@muc/bob"})
	all := r.All()
	require.Len(t, all, 1)
	all[0].Address = "mutated"
	_, ok := r.Get("room@muc/bob")
	require.True(t, ok)
}
