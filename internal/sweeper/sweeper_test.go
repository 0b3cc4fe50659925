package sweeper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"parley/pkg/conversation"
	"parley/pkg/models"
)

func TestRunOnceClosesEmptyRooms(t *testing.T) {
	reg := conversation.NewRegistry(0)
	reg.GetOrCreate("empty@muc", models.KindRoom)
	busy, _, _ := reg.GetOrCreate("busy@muc", models.KindRoom)
	busy.Roster().Add(models.Identity{Address: "busy@muc/bob"})
	reg.GetOrCreate("bob@example.net", models.KindThread)

	RunOnce(reg)

	_, ok := reg.Get("empty@muc")
	require.False(t, ok)
	_, ok = reg.Get("busy@muc")
	require.True(t, ok)
	_, ok = reg.Get("bob@example.net")
	require.True(t, ok)
}

func TestStartRejectsBadCron(t *testing.T) {
	reg := conversation.NewRegistry(0)
	_, err := Start(context.Background(), reg, "not a cron")
	require.Error(t, err)
}

func TestStartDefaultsCron(t *testing.T) {
	reg := conversation.NewRegistry(0)
	cancel, err := Start(context.Background(), reg, "")
	require.NoError(t, err)
	cancel()
}
