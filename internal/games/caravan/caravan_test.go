package caravan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/session"
)

func newTestGame(t *testing.T) *session.Game {
	t.Helper()
	g, err := session.NewGame(Spec(), []string{"alice", "bob"})
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)
	return g
}

func mustSubmit(t *testing.T, g *session.Game, player int, name string, args map[string]any) *flow.State {
	t.Helper()
	st, res, err := g.Submit(player, name, args)
	require.NoError(t, err)
	require.True(t, res.Success, "submit %s by seat %d: %v", name, player, res.Errors)
	return st
}

// loadAll plays the whole market phase: two players, six goods, three
// rounds of loading one each.
func loadAll(t *testing.T, g *session.Game) {
	t.Helper()
	for _, m := range []struct {
		player int
		goods  string
	}{
		{0, "goods-1"}, {1, "goods-2"},
		{0, "goods-3"}, {1, "goods-4"},
		{0, "goods-5"}, {1, "goods-6"},
	} {
		mustSubmit(t, g, m.player, "load", map[string]any{"goods": m.goods})
	}
}

func TestSpecValidates(t *testing.T) {
	require.NoError(t, Spec().Validate())
}

func TestFullPlaythrough(t *testing.T) {
	g := newTestGame(t)

	st := g.State()
	assert.Equal(t, "market", st.Phase)
	assert.Equal(t, 0, st.Player)
	assert.Equal(t, []string{"load"}, st.AvailableActions)
	assert.Equal(t, "Load goods", st.Prompt)

	loadAll(t, g)

	st = g.State()
	assert.Equal(t, "auction", st.Phase)
	require.Len(t, st.Awaiting, 2)
	assert.False(t, st.Awaiting[0].Done)
	assert.False(t, st.Awaiting[1].Done)

	st = mustSubmit(t, g, 0, "bid", map[string]any{"amount": 3})
	require.Len(t, st.Awaiting, 2)
	assert.True(t, st.Awaiting[0].Done)
	assert.Equal(t, 1, st.Player)

	st = mustSubmit(t, g, 1, "bid", map[string]any{
		"amount": 5, "boast": "finest silk in the province",
	})

	// Seat 1 won the auction and posts the silk rate.
	assert.Equal(t, "appraise", st.Phase)
	assert.Equal(t, 1, st.Player)
	assert.Equal(t, []string{"price"}, st.AvailableActions)

	st = mustSubmit(t, g, 1, "price", map[string]any{
		"ware": "silk",
		"rate": map[string]any{"ware": "silk", "rate": 5},
	})

	assert.Equal(t, "sell", st.Phase)
	assert.Equal(t, 0, st.Player)
	assert.Equal(t, []string{"sell", "haggle", "pass"}, st.AvailableActions)

	// Posted silk rate plus the default spice and salt rates.
	st = mustSubmit(t, g, 0, "sell", map[string]any{
		"lot": []any{"goods-1", "goods-3", "goods-5"},
	})
	assert.Equal(t, 13, g.State().Position.Vars["gold.0"])

	// Seat 1 haggles through the step-by-step protocol instead.
	prompt, err := g.BeginAction(1, "haggle")
	require.NoError(t, err)
	require.NotNil(t, prompt)
	assert.Equal(t, "offers", prompt.Selection)
	assert.Equal(t, []any{1, 2, 3, "stop"}, prompt.Choices)

	for _, pick := range []any{2, 1, "stop"} {
		_, res, err := g.SubmitSelection("offers", pick)
		require.NoError(t, err)
		require.True(t, res.Success, "pick %v: %v", pick, res.Errors)
	}

	st = g.State()
	require.True(t, st.Complete)
	assert.Equal(t, []int{0}, st.Winners)
	assert.Equal(t, 6, st.Position.Vars["gold.1"])
	assert.Equal(t, int64(11), g.Seq())
}

func TestBidCannotExceedGold(t *testing.T) {
	g := newTestGame(t)
	loadAll(t, g)

	_, res, err := g.Submit(0, "bid", map[string]any{"amount": 9})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "cannot bid more than your gold")

	// The rejected bid changed nothing.
	assert.Equal(t, 8, g.State().Position.Vars["gold.0"])
	assert.False(t, g.State().Awaiting[0].Done)
}

func TestPriceRateMustMatchWare(t *testing.T) {
	g := newTestGame(t)
	loadAll(t, g)
	mustSubmit(t, g, 0, "bid", map[string]any{"amount": 3})
	mustSubmit(t, g, 1, "bid", map[string]any{"amount": 5})

	_, res, err := g.Submit(1, "price", map[string]any{
		"ware": "silk",
		"rate": map[string]any{"ware": "salt", "rate": 2},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "not a current choice")
}

func TestRatesDefaultWithoutAPosting(t *testing.T) {
	g := newTestGame(t)
	loadAll(t, g)
	mustSubmit(t, g, 0, "bid", map[string]any{"amount": 2})
	mustSubmit(t, g, 1, "bid", map[string]any{"amount": 1})

	// Seat 0 leads and posts a spice rate; silk and salt default.
	mustSubmit(t, g, 0, "price", map[string]any{
		"ware": "spice",
		"rate": map[string]any{"ware": "spice", "rate": 4},
	})

	vars := g.State().Position.Vars
	assert.Equal(t, 3, vars["rate.silk"])
	assert.Equal(t, 4, vars["rate.spice"])
	assert.Equal(t, 1, vars["rate.salt"])
}

func TestCheckpointRestoreMidGame(t *testing.T) {
	g := newTestGame(t)
	loadAll(t, g)
	mustSubmit(t, g, 0, "bid", map[string]any{"amount": 3})
	mustSubmit(t, g, 1, "bid", map[string]any{"amount": 5})

	// Round-trip the snapshot through JSON the way the store does.
	data, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored, err := session.RestoreGame(Spec(), &snap)
	require.NoError(t, err)

	st := restored.State()
	assert.Equal(t, "appraise", st.Phase)
	assert.Equal(t, 1, st.Player)
	assert.Equal(t, []string{"price"}, st.AvailableActions)

	finish := func(g *session.Game) {
		mustSubmit(t, g, 1, "price", map[string]any{
			"ware": "silk",
			"rate": map[string]any{"ware": "silk", "rate": 5},
		})
		mustSubmit(t, g, 0, "sell", map[string]any{
			"lot": []any{"goods-1", "goods-3", "goods-5"},
		})
		mustSubmit(t, g, 1, "haggle", map[string]any{
			"offers": []any{2, 1, "stop"},
		})
	}
	finish(g)
	finish(restored)

	require.True(t, g.State().Complete)
	require.True(t, restored.State().Complete)
	assert.Equal(t, []int{0}, g.Winners())
	assert.Equal(t, []int{0}, restored.Winners())
	assert.Equal(t, g.Seq(), restored.Seq())

	origID, err := g.Snapshot().CheckpointID()
	require.NoError(t, err)
	restoredID, err := restored.Snapshot().CheckpointID()
	require.NoError(t, err)
	assert.Equal(t, origID, restoredID)
}
