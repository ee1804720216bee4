package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/engine"
)

func TestLoaderEmbeddedFallback(t *testing.T) {
	c, err := NewLoader(nil).Load()
	require.NoError(t, err)

	wolf, ok := c.Creatures["wolf"]
	require.True(t, ok)
	assert.Equal(t, engine.BehaviorAggressive, wolf.Behavior)
	assert.NotEmpty(t, wolf.Loot)

	p := c.NewPlayer()
	assert.Equal(t, engine.PlayerID, p.ID)
	assert.Equal(t, p.MaxHP, p.HP)
	assert.Equal(t, "stone_knife", p.Equipment["weapon"])

	mend, ok := c.Skill("mend")
	require.True(t, ok)
	assert.Equal(t, "mend", mend.ID)
	assert.Equal(t, EffectHeal, mend.Effect.Type)

	assert.NotEmpty(t, c.Quests)
	assert.NotEmpty(t, c.Spawns)
}

func TestLoaderDirectoryOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skills.yaml"), []byte(`
blink:
  name: Blink
  mana_cost: 1
  effect: {type: RESTORE_STAMINA, amount: 1}
`), 0o644))

	c, err := NewLoader([]string{dir}).Load()
	require.NoError(t, err)
	_, ok := c.Skill("mend")
	assert.False(t, ok, "the directory file replaces the embedded table")
	_, ok = c.Skill("blink")
	assert.True(t, ok)
	assert.NotEmpty(t, c.Items, "other tables still come from the embedded catalog")
}

func TestLoaderRejectsBrokenReferences(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spawns.yaml"), []byte(`
- {template: dragon, id: d1, position: {x: 0, y: 0}}
`), 0o644))

	_, err := NewLoader([]string{dir}).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown template")
}

func TestSpawnAndUnknownItem(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	a, ok := c.Spawn("rabbit", "r1", engine.Position{X: 2, Y: 2})
	require.True(t, ok)
	assert.Equal(t, "r1", a.ID)
	assert.Equal(t, a.MaxHP, a.HP)
	assert.Equal(t, engine.Position{X: 2, Y: 2}, a.Position)

	it, ok := c.Item("moon_dust")
	assert.False(t, ok)
	assert.Equal(t, "moon_dust", it.Name)
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, engine.SizeLarge, ParseSize(" Large "))
	assert.Equal(t, engine.Size(""), ParseSize("gargantuan"))
	assert.Equal(t, engine.BehaviorTerritorial, ParseBehavior("territorial"))
}

func TestEmbeddedSectionsRoundTripThroughDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, s := range Sections {
		raw, err := Embedded(s)
		require.NoError(t, err, s)
		require.NoError(t, os.WriteFile(filepath.Join(dir, s+".yaml"), raw, 0o644))
	}
	_, err := Embedded("nope")
	assert.Error(t, err)

	fromDir, err := NewLoader([]string{dir}).Load()
	require.NoError(t, err)
	builtin, err := Default()
	require.NoError(t, err)
	assert.Equal(t, builtin, fromDir)
}
