package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"atoz-search/internal/models"
)

func TestFlatten_FlatList(t *testing.T) {
	raw := []byte(`[{"country_code":"us","country_name":"United States"}]`)

	got := Flatten(raw)

	require.Len(t, got, 1)
	assert.Equal(t, models.LocationOption{CountryCode: "us", CountryName: "United States"}, got[0])
}

func TestFlatten_NestedUsesFirstInnerList(t *testing.T) {
	raw := []byte(`[
		[{"country_code":"us","country_name":"United States"},{"country_code":"in","country_name":"India"}],
		[{"country_code":"de","country_name":"Germany"}]
	]`)

	got := Flatten(raw)

	require.Len(t, got, 2)
	assert.Equal(t, "us", got[0].CountryCode)
	assert.Equal(t, "in", got[1].CountryCode)
}

func TestFlatten_ObjectWithIndexKey(t *testing.T) {
	raw := []byte(`{"0":[{"country_code":"fr","country_name":"France"}]}`)

	got := Flatten(raw)

	require.Len(t, got, 1)
	assert.Equal(t, "fr", got[0].CountryCode)
}

func TestFlatten_MalformedDegradesToEmpty(t *testing.T) {
	inputs := map[string]string{
		"object":     `{"countries":[]}`,
		"string":     `"us"`,
		"number":     `42`,
		"null":       `null`,
		"invalid":    `[{"country_code":`,
		"empty":      ``,
		"empty list": `[]`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			got := Flatten([]byte(in))
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestFlatten_SkipsBadEntriesAndDuplicates(t *testing.T) {
	raw := []byte(`[
		{"country_code":"us","country_name":"United States"},
		"gb",
		{"country_name":"Nowhere"},
		{"country_code":7,"country_name":"Numeric"},
		{"country_code":"us","country_name":"Duplicate"},
		{"country_code":"ca"}
	]`)

	got := Flatten(raw)

	require.Len(t, got, 2)
	assert.Equal(t, "United States", got[0].CountryName)
	assert.Equal(t, models.LocationOption{CountryCode: "ca"}, got[1])
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Greater(t, c.Len(), 10)
	name, ok := c.Lookup("us")
	assert.True(t, ok)
	assert.Equal(t, "United States", name)

	seen := map[string]bool{}
	for _, o := range c.Options() {
		assert.False(t, seen[o.CountryCode], "duplicate code %s", o.CountryCode)
		seen[o.CountryCode] = true
	}
}

func TestLookup_Unknown(t *testing.T) {
	c := New([]models.LocationOption{{CountryCode: "us", CountryName: "United States"}})

	name, ok := c.Lookup("zz")

	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestOptions_ReturnsCopy(t *testing.T) {
	c := New([]models.LocationOption{{CountryCode: "us", CountryName: "United States"}})

	opts := c.Options()
	opts[0].CountryName = "changed"

	name, _ := c.Lookup("us")
	assert.Equal(t, "United States", name)
	assert.Equal(t, "United States", c.Options()[0].CountryName)
}

func TestLoad(t *testing.T) {
	logger := zap.NewNop()

	t.Run("empty path uses embedded catalog", func(t *testing.T) {
		assert.Equal(t, Default().Len(), Load("", logger).Len())
	})

	t.Run("reads nested file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "locations.json")
		require.NoError(t, os.WriteFile(path, []byte(`[[{"country_code":"jp","country_name":"Japan"}]]`), 0o644))

		c := Load(path, logger)

		name, ok := c.Lookup("jp")
		assert.True(t, ok)
		assert.Equal(t, "Japan", name)
	})

	t.Run("missing file degrades to empty", func(t *testing.T) {
		c := Load(filepath.Join(t.TempDir(), "missing.json"), logger)

		assert.Equal(t, 0, c.Len())
		assert.NotNil(t, c.Options())
	})
}
