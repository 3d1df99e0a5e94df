package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.On("a"))
	assert.True(t, m.On("c"))
	assert.True(t, m.On("e"))
	assert.False(t, m.On("b"))
	assert.False(t, m.On("d"))
	assert.False(t, m.On("f"))
	assert.False(t, m.On("missing"))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", "editor-1"))
	assert.False(t, m.Enabled("never", "editor-1"))
	assert.False(t, m.Enabled("junk", "editor-1"))

	first := m.Enabled("canary", "editor-42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", "editor-42"), "rollout evaluation must be deterministic per subject")
	}

	assert.False(t, m.Enabled("canary", ""), "percentage rollout requires a subject")
}

func TestDefaults(t *testing.T) {
	m := NewManager("")

	assert.True(t, m.On(RebuildHook))
	assert.False(t, m.On(ImageVariants))
	assert.False(t, m.On(PublicCache))
	assert.Empty(t, m.Raw())

	overridden := NewManager("rebuild_hook=off")
	assert.False(t, overridden.On(RebuildHook))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,Rebuild_Hook=on, image_variants = 20% ,beta_editor=on ")

	assert.Equal(t, []string{"beta_editor", ImageVariants, PublicCache, RebuildHook}, m.Names())

	raw := m.Raw()
	assert.Len(t, raw, 3)
	assert.Equal(t, "20%", raw[ImageVariants])
	assert.Equal(t, "on", raw[RebuildHook])

	snap := m.Snapshot("editor")
	assert.Len(t, snap, 4)
	assert.True(t, snap[RebuildHook])
	assert.True(t, snap["beta_editor"])
	assert.False(t, snap[PublicCache])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.On(RebuildHook))
	assert.Empty(t, m.Names())
	assert.Empty(t, m.Snapshot(""))
}
