package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDefaults(t *testing.T, c *Configuration) {
	t.Helper()
	assert.Equal(t, DefaultWidth, c.Width())
	assert.Equal(t, DefaultHeight, c.Height())
	assert.Equal(t, 0, c.BuildCount())
	assert.Equal(t, 0, c.DayCount())
	assert.False(t, c.UseBuildDateAsDomain())
	assert.Equal(t, TypePriority, c.GraphType().ID)
	name, value := c.ParameterFilter()
	assert.Empty(t, name)
	assert.Empty(t, value)
	assert.True(t, c.IsDefault())
}

func TestNew_Defaults(t *testing.T) {
	c := New(nil)
	assertDefaults(t, c)
	assert.True(t, c.IsVisible())
	assert.NoError(t, c.Validate())
	assert.Equal(t, "500!200!0!0!PRIORITY!0!!", c.Serialize())
}

func TestInitializeFrom_Valid(t *testing.T) {
	tests := []struct {
		value      string
		width      int
		height     int
		buildCount int
		dayCount   int
		graphType  string
		byDate     bool
		param      string
		paramValue string
	}{
		{"50!100!0!0!PRIORITY!0!!", 50, 100, 0, 0, TypePriority, false, "", ""},
		{"100!50!12!13!NEW!1!!", 100, 50, 12, 13, TypeNew, true, "", ""},
		{"400!300!2!0!TOTALS!0!branch!main", 400, 300, 2, 0, TypeTotals, false, "branch", "main"},
		{"1999!26!0!7!HEALTH!1!!", 1999, 26, 0, 7, TypeHealth, true, "", ""},
		{"500!200!0!0!NONE!0!!", 500, 200, 0, 0, TypeNone, false, "", ""},
		{"500!200!0!0!PRIORITY!0!!!", 500, 200, 0, 0, TypePriority, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c := New(nil)
			require.True(t, c.InitializeFrom(tt.value))

			assert.Equal(t, tt.width, c.Width())
			assert.Equal(t, tt.height, c.Height())
			assert.Equal(t, tt.buildCount, c.BuildCount())
			assert.Equal(t, tt.dayCount, c.DayCount())
			assert.Equal(t, tt.graphType, c.GraphType().ID)
			assert.Equal(t, tt.byDate, c.UseBuildDateAsDomain())
			name, value := c.ParameterFilter()
			assert.Equal(t, tt.param, name)
			assert.Equal(t, tt.paramValue, value)
		})
	}
}

func TestInitializeFrom_InvalidResetsToDefaults(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"NEW",
		"50!100!0!0!PRIORITY!0!",
		"50!100!0!0!PRIORITY!0!!!!",
		"50.0!100!0!0!PRIORITY!0!!",
		"50!100!x!0!PRIORITY!0!!",
		"50!100!0!x!PRIORITY!0!!",
		"50!100!0!0!NOPE!0!!",
		"50!100!0!0!PRIORITY!2!!",
		"50!100!0!0!PRIORITY!true!!",
		"25!100!0!0!PRIORITY!0!!",
		"2000!100!0!0!PRIORITY!0!!",
		"100!25!0!0!PRIORITY!0!!",
		"100!2000!0!0!PRIORITY!0!!",
		"100!100!1!0!PRIORITY!0!!",
		"100!100!-2!0!PRIORITY!0!!",
		"100!100!0!-1!PRIORITY!0!!",
		"100!100!0!0!PRIORITY!0!branch!",
		"100!100!0!0!PRIORITY!0!!main",
	}

	for _, value := range invalid {
		t.Run(value, func(t *testing.T) {
			c := New(nil)
			require.True(t, c.InitializeFrom("300!300!5!5!NEW!1!branch!main"))

			assert.False(t, c.InitializeFrom(value))
			assertDefaults(t, c)
		})
	}
}

func TestInitializeFrom_BuildCountSemantics(t *testing.T) {
	c := New(nil)

	require.True(t, c.InitializeFrom("500!200!0!0!PRIORITY!0!!"))
	assert.False(t, c.IsBuildCountDefined())
	assert.Empty(t, c.BuildCountString())

	assert.False(t, c.InitializeFrom("500!200!1!0!PRIORITY!0!!"))
	assert.False(t, c.IsBuildCountDefined())

	require.True(t, c.InitializeFrom("500!200!2!0!PRIORITY!0!!"))
	assert.True(t, c.IsBuildCountDefined())
	assert.Equal(t, "2", c.BuildCountString())
}

func TestSerialize_RoundTrip(t *testing.T) {
	values := []string{
		"500!200!0!0!PRIORITY!0!!",
		"100!50!12!13!NEW!1!!",
		"400!300!2!0!TOTALS!0!branch!main",
		"30!1000!50!30!HEALTH!1!os!linux",
	}
	for _, value := range values {
		c := New(nil)
		require.True(t, c.InitializeFrom(value))
		assert.Equal(t, value, c.Serialize())

		other := New(nil)
		require.True(t, other.InitializeFrom(c.Serialize()))
		assert.True(t, c.Equal(other))
	}
}

func TestParameterValuesMayNotContainSeparator(t *testing.T) {
	c := New(nil)
	assert.False(t, c.InitializeFromSettings(Settings{
		Width: 100, Height: 100, GraphType: TypePriority,
		ParameterName: "a!b", ParameterValue: "c",
	}))
	assertDefaults(t, c)
}

func TestInitializeFromValues(t *testing.T) {
	c := New(nil)
	require.True(t, c.InitializeFromValues("300", "150", "", "", ""))
	assert.Equal(t, 300, c.Width())
	assert.Equal(t, 150, c.Height())
	assert.Equal(t, 0, c.DayCount())
	assert.Equal(t, 0, c.BuildCount())
	assert.True(t, c.UseBuildDateAsDomain())

	require.True(t, c.InitializeFromValues("300", "150", "14", "branch", "main"))
	assert.Equal(t, 14, c.DayCount())
	assert.Equal(t, "14", c.DayCountString())

	assert.False(t, c.InitializeFromValues("wide", "150", "", "", ""))
	assertDefaults(t, c)
	assert.False(t, c.InitializeFromValues("300", "150", "x", "", ""))
	assertDefaults(t, c)
	assert.False(t, c.InitializeFromValues("300", "150", "1", "branch", ""))
	assertDefaults(t, c)
}

func TestInitializeFromMap(t *testing.T) {
	c := New(nil)
	require.True(t, c.InitializeFromMap(map[string]any{
		KeyWidth:        500,
		KeyHeight:       200,
		KeyBuildCount:   "3",
		KeyDayCount:     "",
		KeyGraphType:    TypeNew,
		KeyUseBuildDate: true,
	}))
	assert.Equal(t, 3, c.BuildCount())
	assert.Equal(t, 0, c.DayCount())
	assert.Equal(t, TypeNew, c.GraphType().ID)
	assert.True(t, c.UseBuildDateAsDomain())

	assert.False(t, c.InitializeFromMap(map[string]any{KeyWidth: 500}))
	assertDefaults(t, c)
}

func TestInitializeFromMap_RoundTrip(t *testing.T) {
	c := New(nil)
	require.True(t, c.InitializeFrom("400!300!2!5!TOTALS!1!branch!main"))

	other := New(nil)
	require.True(t, other.InitializeFromMap(c.ToMap()))
	assert.True(t, c.Equal(other))
}

func TestInitializeFromJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		ok   bool
	}{
		{"numbers", `{"width":600,"height":300,"buildCountString":"","dayCountString":"30","graphType":"TOTALS","useBuildDateAsDomain":false}`, true},
		{"numeric strings", `{"width":"600","height":"300","buildCountString":"10","dayCountString":"","graphType":"PRIORITY","useBuildDateAsDomain":true,"parameterName":"os","parameterValue":"linux"}`, true},
		{"missing counts", `{"width":600,"height":300,"graphType":"PRIORITY","useBuildDateAsDomain":false}`, true},
		{"fractional width", `{"width":600.5,"height":300,"graphType":"PRIORITY","useBuildDateAsDomain":false}`, false},
		{"missing graph type", `{"width":600,"height":300,"useBuildDateAsDomain":false}`, false},
		{"missing domain flag", `{"width":600,"height":300,"graphType":"PRIORITY"}`, false},
		{"bad count", `{"width":600,"height":300,"buildCountString":"many","graphType":"PRIORITY","useBuildDateAsDomain":false}`, false},
		{"invalid build count", `{"width":600,"height":300,"buildCountString":"1","graphType":"PRIORITY","useBuildDateAsDomain":false}`, false},
		{"not json", `width=600`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			assert.Equal(t, tt.ok, c.InitializeFromJSON([]byte(tt.json)))
			if !tt.ok {
				assertDefaults(t, c)
			}
		})
	}
}

func TestInitializeFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.txt")
	require.NoError(t, os.WriteFile(path, []byte("300!120!0!10!TOTALS!1!!\n"), 0o644))

	c := New(nil)
	require.True(t, c.InitializeFromFile(path))
	assert.Equal(t, 300, c.Width())
	assert.Equal(t, 10, c.DayCount())

	assert.False(t, c.InitializeFromFile(filepath.Join(dir, "missing.txt")))
	assertDefaults(t, c)
}

func TestInitializeFromFile_KeepsParameterWhitespace(t *testing.T) {
	want := "500!200!0!0!PRIORITY!0!branch!release "
	path := filepath.Join(t.TempDir(), "defaults.txt")
	require.NoError(t, os.WriteFile(path, []byte(want+"\r\n"), 0o644))

	c := New(nil)
	require.True(t, c.InitializeFromFile(path))
	assert.Equal(t, want, c.Serialize())
	name, value := c.ParameterFilter()
	assert.Equal(t, "branch", name)
	assert.Equal(t, "release ", value)
}

func TestNewConfiguration_FallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.txt")
	require.NoError(t, os.WriteFile(path, []byte("300!120!0!10!TOTALS!1!!"), 0o644))

	c := NewConfiguration(nil, "400!300!2!0!NEW!0!!", path)
	assert.Equal(t, TypeNew, c.GraphType().ID)

	c = NewConfiguration(nil, "garbage", path)
	assert.Equal(t, TypeTotals, c.GraphType().ID)

	c = NewConfiguration(nil, "garbage", "")
	assertDefaults(t, c)
}

func TestDeactivated(t *testing.T) {
	c := Deactivated(nil)
	assert.False(t, c.IsVisible())
	assert.Equal(t, TypeNone, c.GraphType().ID)
	assert.Empty(t, c.Extractor()(nil))
}

func TestParse_ReportsEveryViolation(t *testing.T) {
	_, err := Parse(nil, "10!3000!1!-1!NOPE!0!branch!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWidth)
	assert.ErrorIs(t, err, ErrInvalidHeight)
	assert.ErrorIs(t, err, ErrInvalidBuildCount)
	assert.ErrorIs(t, err, ErrInvalidDayCount)
	assert.ErrorIs(t, err, ErrUnknownGraphType)
	assert.ErrorIs(t, err, ErrUnpairedParameter)

	_, err = Parse(nil, "1!2!3")
	assert.Error(t, err)

	c, err := Parse(nil, "400!300!2!0!NEW!0!!")
	require.NoError(t, err)
	assert.Equal(t, 2, c.BuildCount())
}

func TestEqualAndString(t *testing.T) {
	a := New(nil)
	b := New(nil)
	assert.True(t, a.Equal(b))

	require.True(t, b.InitializeFrom("400!300!2!0!NEW!0!!"))
	assert.False(t, a.Equal(b))
	assert.False(t, b.IsDefault())
	assert.Contains(t, b.String(), "type: NEW")
	assert.Contains(t, b.String(), "size: 400x300")
}
