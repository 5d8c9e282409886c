package bridge_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiltlab/arlabyrinth/internal/bridge"
	"github.com/tiltlab/arlabyrinth/internal/config"
	"github.com/tiltlab/arlabyrinth/internal/database"
	"github.com/tiltlab/arlabyrinth/internal/game"
	"github.com/tiltlab/arlabyrinth/internal/history"
	"github.com/tiltlab/arlabyrinth/internal/menu"
	"github.com/tiltlab/arlabyrinth/internal/prefs"
	"github.com/tiltlab/arlabyrinth/internal/world"
	"github.com/tiltlab/arlabyrinth/pkg/core"
)

const (
	target   = "MyTargetMarker"
	instance = "Spawned_MyTargetMarker"
	detected = `{"added":[{"name":"MyTargetMarker","position":[0,0,1]}]}`
	lost     = `{"removed":[{"name":"MyTargetMarker"}]}`
)

func newGame(t *testing.T, policy string) (*game.Game, *prefs.Memory) {
	t.Helper()
	store := prefs.NewMemory()
	return newGameWith(t, game.Options{
		Game:  gameConfig(policy),
		Prefs: store,
	}), store
}

func newGameWith(t *testing.T, opts game.Options) *game.Game {
	t.Helper()
	opts.Version = "1.2.3"
	opts.BuildDate = "2026-01-01"
	g, err := game.New(opts)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func gameConfig(policy string) config.GameConfig {
	return config.GameConfig{
		TargetMarker:  target,
		CleanupPolicy: policy,
		PrefabName:    "Labyrinth",
		HasBall:       true,
		SpawnPoint:    []float64{0, 0.05, 0},
	}
}

func TestVersionAndPolicy(t *testing.T) {
	g, _ := newGame(t, "destroy")

	res, err := g.Dispatch(":VERSION:")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3", "2026-01-01"}, res)

	res, err = g.Dispatch(":TRACKING:POLICY:")
	require.NoError(t, err)
	assert.Equal(t, "destroy", res)
}

func TestTrackables_SpawnsOnce(t *testing.T) {
	g, _ := newGame(t, "")

	res, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	assert.Equal(t, bridge.SpawnResult{Enabled: true, Spawned: []string{target}}, res)

	res, err = g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	assert.Equal(t, bridge.SpawnResult{Enabled: true, Duplicates: []string{target}}, res)

	res, err = g.Dispatch(":TRACKABLES:CHANGED:", `{"added":[{"name":"OtherMarker"}]}`)
	require.NoError(t, err)
	assert.Equal(t, bridge.SpawnResult{Enabled: true}, res)

	res, err = g.Dispatch(":SPAWNED:")
	require.NoError(t, err)
	assert.Equal(t, []string{target}, res)
	assert.Equal(t, []string{instance}, g.World.Instances())
	assert.NotNil(t, g.Session.Active())
}

func TestTrackables_Errors(t *testing.T) {
	g, _ := newGame(t, "")

	_, err := g.Dispatch(":TRACKABLES:CHANGED:")
	assert.Error(t, err, "payload is required")

	_, err = g.Dispatch(":TRACKABLES:CHANGED:", "{not json")
	assert.Error(t, err)
	assert.Empty(t, g.World.Instances())
}

func TestTrackables_DisabledSpawner(t *testing.T) {
	g, _ := newGame(t, "")
	g.Spawner.Disable()

	res, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	assert.Equal(t, bridge.SpawnResult{Enabled: false}, res)
	assert.Empty(t, g.World.Instances())
}

func TestTrigger_GoalScoresOnce(t *testing.T) {
	g, store := newGame(t, "")
	_, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)

	res, err := g.Dispatch(":BALL:TRIGGER:", instance, "GoalZone", "Goal")
	require.NoError(t, err)
	assert.Equal(t, bridge.TriggerResult{
		Delivered: true,
		Collider:  "Goal",
		State:     "Won",
		Score:     core.Score{Wins: 1},
	}, res)
	assert.Equal(t, map[string]int{"WinCount": 1, "LossCount": 0}, store.Committed())
	assert.True(t, g.World.Panel(game.WinPanel).Active())
	assert.Equal(t, "Wins: 1", g.World.Label(game.WinLabel).Text())

	// physics is off once the round is decided
	res, err = g.Dispatch(":BALL:TRIGGER:", instance, "Floor", "DeathPlane")
	require.NoError(t, err)
	assert.False(t, res.(bridge.TriggerResult).Delivered)
	assert.Equal(t, core.Score{Wins: 1}, res.(bridge.TriggerResult).Score)
}

func TestTrigger_Errors(t *testing.T) {
	g, _ := newGame(t, "")

	_, err := g.Dispatch(":BALL:TRIGGER:", instance, "GoalZone")
	assert.Error(t, err, "tag is required")

	_, err = g.Dispatch(":BALL:TRIGGER:", "Nope", "GoalZone", "Goal")
	assert.Error(t, err)
}

func TestRestart(t *testing.T) {
	g, _ := newGame(t, "")

	_, err := g.Dispatch(":GAME:RESTART:")
	assert.True(t, errors.Is(err, core.ErrNoActiveSession))

	_, err = g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	_, err = g.Dispatch(":BALL:TRIGGER:", instance, "Floor", "DeathPlane")
	require.NoError(t, err)
	assert.True(t, g.World.Panel(game.LossPanel).Active())

	res, err := g.Dispatch(":GAME:RESTART:")
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.False(t, g.World.Panel(game.LossPanel).Active())

	res, err = g.Dispatch(":BALL:TRIGGER:", instance, "GoalZone", "Goal")
	require.NoError(t, err)
	assert.Equal(t, core.Score{Wins: 1, Losses: 1}, res.(bridge.TriggerResult).Score)
}

func TestBallPose(t *testing.T) {
	g, _ := newGame(t, "")
	_, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)

	_, err = g.Dispatch(":BALL:POSE:", instance, "0.1", "0.02", "-0.3")
	require.NoError(t, err)
	assert.Equal(t, core.Vector3{X: 0.1, Y: 0.02, Z: -0.3}, g.Session.Active().Pose().Position)

	_, err = g.Dispatch(":BALL:POSE:", instance, "0.1", "up", "0")
	assert.Error(t, err)
	_, err = g.Dispatch(":BALL:POSE:", instance, "0.1")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	g, store := newGame(t, "")
	_, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	_, err = g.Dispatch(":BALL:TRIGGER:", instance, "GoalZone", "Goal")
	require.NoError(t, err)

	res, err := g.Dispatch(":STATS:GET:")
	require.NoError(t, err)
	assert.Equal(t, core.Score{Wins: 1}, res)

	res, err = g.Dispatch(":STATS:RESET:")
	require.NoError(t, err)
	assert.Equal(t, core.Score{}, res)
	assert.Empty(t, store.Committed())
	assert.Equal(t, "Wins: 0", g.World.Label(game.WinLabel).Text())
}

func TestMenuButtons(t *testing.T) {
	g, _ := newGame(t, "")

	_, err := g.Dispatch(":SCENE:RELOAD:")
	assert.Error(t, err, "nothing loaded yet")

	_, err = g.Dispatch(":SCENE:START:")
	require.NoError(t, err)
	assert.Equal(t, menu.GameScene, g.World.Scenes().ActiveScene())

	_, err = g.Dispatch(":SCENE:RELOAD:")
	require.NoError(t, err)
	assert.Equal(t, menu.GameScene, g.World.Scenes().ActiveScene())

	_, err = g.Dispatch(":SCENE:MENU:")
	require.NoError(t, err)
	assert.Equal(t, menu.MenuScene, g.World.Scenes().ActiveScene())

	_, err = g.Dispatch(":GAME:QUIT:")
	require.NoError(t, err)
	assert.True(t, g.World.Scenes().QuitRequested())
}

func TestDestroyPolicy_RespawnsAfterLoss(t *testing.T) {
	g, _ := newGame(t, "destroy")
	_, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	first := g.Session.Active()

	res, err := g.Dispatch(":TRACKABLES:CHANGED:", lost)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, res.(bridge.SpawnResult).Cleaned)
	assert.Nil(t, g.Session.Active())
	assert.Empty(t, g.World.Instances())

	_, err = g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	assert.NotSame(t, first, g.Session.Active())
}

func TestMenuOptional(t *testing.T) {
	g, _ := newGame(t, "")
	b, err := bridge.New(bridge.Dependencies{World: g.World, Spawner: g.Spawner, Session: g.Session})
	require.NoError(t, err)
	b.RegisterHandlers(g.Dispatcher)

	_, err = g.Dispatch(":SCENE:START:")
	assert.True(t, errors.Is(err, core.ErrConfigurationMissing))

	res, err := g.Dispatch(":STATS:RESET:")
	require.NoError(t, err, "falls back to the session")
	assert.Equal(t, core.Score{}, res)
}

func TestSceneReload_SpawnsFreshContent(t *testing.T) {
	g, _ := newGame(t, "")
	_, err := g.Dispatch(":SCENE:START:")
	require.NoError(t, err)
	_, err = g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	first := g.Session.Active()
	_, err = g.Dispatch(":BALL:TRIGGER:", instance, "Floor", "DeathPlane")
	require.NoError(t, err)
	require.True(t, g.World.Panel(game.LossPanel).Active())

	_, err = g.Dispatch(":SCENE:RELOAD:")
	require.NoError(t, err)
	assert.Empty(t, g.World.Instances())
	assert.Nil(t, g.Session.Active())
	assert.False(t, g.World.Panel(game.LossPanel).Active(), "overlay hidden after reload")
	assert.Equal(t, "Losses: 1", g.World.Label(game.LossLabel).Text())

	res, err := g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	assert.Equal(t, bridge.SpawnResult{Enabled: true, Spawned: []string{target}}, res)
	assert.Equal(t, []string{instance}, g.World.Instances())
	require.NotNil(t, g.Session.Active())
	assert.NotSame(t, first, g.Session.Active())
	assert.False(t, g.Session.Active().IsGameOver())

	_, err = g.Dispatch(":SCENE:MENU:")
	require.NoError(t, err)
	res, err = g.Dispatch(":SPAWNED:")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestWorldState(t *testing.T) {
	g, _ := newGame(t, "")
	_, err := g.Dispatch(":SCENE:START:")
	require.NoError(t, err)
	_, err = g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)

	res, err := g.Dispatch(":WORLD:STATE:")
	require.NoError(t, err)
	effects := res.([]world.Effect)
	require.NotEmpty(t, effects)
	assert.Equal(t, world.Effect{Kind: world.EffectScene, Scene: menu.GameScene}, effects[0])

	var labels, spawns int
	for _, e := range effects {
		switch e.Kind {
		case world.EffectText:
			labels++
		case world.EffectSpawn:
			spawns++
			assert.Equal(t, instance, e.Target)
		}
	}
	assert.Equal(t, 2, labels)
	assert.Equal(t, 1, spawns)
}

func TestRounds(t *testing.T) {
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(config.StorageConfig{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "rounds.db"),
	}, config.DBConfig{}))
	t.Cleanup(func() { _ = m.Close() })
	rec, err := history.NewRecorder(m.DB)
	require.NoError(t, err)

	g := newGameWith(t, game.Options{
		Game:    gameConfig(""),
		Prefs:   prefs.NewMemory(),
		Rounds:  rec,
		History: rec,
	})

	res, err := g.Dispatch(":ROUNDS:")
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = g.Dispatch(":TRACKABLES:CHANGED:", detected)
	require.NoError(t, err)
	_, err = g.Dispatch(":BALL:TRIGGER:", instance, "GoalZone", "Goal")
	require.NoError(t, err)

	res, err = g.Dispatch(":ROUNDS:", "5")
	require.NoError(t, err)
	rounds := res.([]core.Round)
	require.Len(t, rounds, 1)
	assert.Equal(t, core.OutcomeWin, rounds[0].Outcome)
	assert.Equal(t, core.Score{Wins: 1}, rounds[0].Score)

	_, err = g.Dispatch(":ROUNDS:", "zero")
	assert.Error(t, err)
	_, err = g.Dispatch(":ROUNDS:", "-1")
	assert.Error(t, err)
}

func TestRounds_NoHistory(t *testing.T) {
	g, _ := newGame(t, "")

	_, err := g.Dispatch(":ROUNDS:")
	assert.True(t, errors.Is(err, core.ErrConfigurationMissing))
}
