package key

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WithNamespace(t *testing.T) {
	k, err := Parse("minecraft:oak_stairs")
	require.NoError(t, err)

	assert.Equal(t, "minecraft", k.Namespace())
	assert.Equal(t, "oak_stairs", k.Value())
	assert.Equal(t, "minecraft:oak_stairs", k.String())
}

func TestParse_DefaultNamespace(t *testing.T) {
	k, err := Parse("stone")
	require.NoError(t, err)
	assert.True(t, k.Equal(Minecraft("stone")))
}

func TestParse_PathWithSlash(t *testing.T) {
	k, err := Parse("mymod:blocks/copper.lamp")
	require.NoError(t, err)
	assert.Equal(t, "mymod", k.Namespace())
	assert.Equal(t, "blocks/copper.lamp", k.Value())
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		":stone",
		"minecraft:",
		"not a valid",
		"minecraft:Stone",
		"a:b:c",
		"minecraft:stone[",
		"bad/ns:stone",
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, "ожидалась ошибка для %q", c)
		assert.True(t, errors.Is(err, ErrInvalidKey))
	}
}

func TestKey_Equal(t *testing.T) {
	assert.True(t, New("minecraft", "air").Equal(Air))
	assert.False(t, New("other", "air").Equal(Air))
	assert.False(t, New("minecraft", "air2").Equal(Air))
}

func TestNew_ValidatesLikeParse(t *testing.T) {
	for _, parts := range [][2]string{
		{"MyMod", "x"},
		{"mymod", "Stone"},
		{"", "stone"},
		{"mymod", ""},
		{"my mod", "stone"},
	} {
		assert.Panics(t, func() { New(parts[0], parts[1]) }, "%q", parts)
	}

	k := New("mymod", "machines/press")
	parsed, err := Parse(k.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(k))
}

func TestWellKnownKeys(t *testing.T) {
	assert.Equal(t, "minecraft:air", Air.String())
	assert.Equal(t, "minecraft:cave_air", CaveAir.String())
	assert.Equal(t, "minecraft:void_air", VoidAir.String())
	assert.Equal(t, "minecraft:water", Water.String())
	assert.Equal(t, "bluemap:missing", Missing.String())
	assert.True(t, Key{}.IsZero())
	assert.False(t, Air.IsZero())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("][") })
	assert.NotPanics(t, func() { MustParse("minecraft:dirt") })
}
