package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/panbanda/trendline/pkg/trend"
)

const (
	DefaultWidth  = 500
	DefaultHeight = 200

	// Separator delimits the fields of a serialized configuration.
	Separator = "!"

	defaultCount = 0
	fieldCount   = 8
	minSize      = 25
	maxSize      = 2000
)

// Settings are the raw values of a configuration. A Settings value is a
// candidate: it only becomes visible through a Configuration once it has
// been validated as a whole.
type Settings struct {
	Width          int    `json:"width" yaml:"width"`
	Height         int    `json:"height" yaml:"height"`
	BuildCount     int    `json:"buildCount" yaml:"build_count"`
	DayCount       int    `json:"dayCount" yaml:"day_count"`
	GraphType      string `json:"graphType" yaml:"graph_type"`
	UseBuildDate   bool   `json:"useBuildDateAsDomain" yaml:"use_build_date"`
	ParameterName  string `json:"parameterName,omitempty" yaml:"parameter_name,omitempty"`
	ParameterValue string `json:"parameterValue,omitempty" yaml:"parameter_value,omitempty"`
}

// DefaultSettings returns the settings of a fresh configuration.
func DefaultSettings(graphType string) Settings {
	return Settings{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		BuildCount: defaultCount,
		DayCount:   defaultCount,
		GraphType:  graphType,
	}
}

// Validation errors reported by Settings.Validate.
var (
	ErrInvalidWidth      = errors.New("width must be between 26 and 1999")
	ErrInvalidHeight     = errors.New("height must be between 26 and 1999")
	ErrInvalidBuildCount = errors.New("build count must be 0 or greater than 1")
	ErrInvalidDayCount   = errors.New("day count must not be negative")
	ErrUnknownGraphType  = errors.New("unknown graph type")
	ErrUnpairedParameter = errors.New("parameter name and value must both be set or both be empty")
	ErrReservedSeparator = errors.New("parameter name and value must not contain " + Separator)
)

// Validate checks every rule and returns all violations joined.
func (s Settings) Validate(registry *Registry) error {
	var errs []error
	if s.Width <= minSize || s.Width >= maxSize {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWidth, s.Width))
	}
	if s.Height <= minSize || s.Height >= maxSize {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidHeight, s.Height))
	}
	if s.BuildCount != 0 && s.BuildCount <= 1 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidBuildCount, s.BuildCount))
	}
	if s.DayCount < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidDayCount, s.DayCount))
	}
	if _, ok := registry.Get(s.GraphType); !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownGraphType, s.GraphType))
	}
	nameBlank := strings.TrimSpace(s.ParameterName) == ""
	valueBlank := strings.TrimSpace(s.ParameterValue) == ""
	if nameBlank != valueBlank {
		errs = append(errs, ErrUnpairedParameter)
	}
	if strings.Contains(s.ParameterName, Separator) || strings.Contains(s.ParameterValue, Separator) {
		errs = append(errs, ErrReservedSeparator)
	}
	return errors.Join(errs...)
}

// Serialize returns the "!"-separated form of the settings.
func (s Settings) Serialize() string {
	return strings.Join([]string{
		strconv.Itoa(s.Width),
		strconv.Itoa(s.Height),
		strconv.Itoa(s.BuildCount),
		strconv.Itoa(s.DayCount),
		s.GraphType,
		serializeBool(s.UseBuildDate),
		s.ParameterName,
		s.ParameterValue,
	}, Separator)
}

func serializeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseSettings parses the serialized form without validating the values.
// A single trailing empty field, left by a trailing separator, is ignored.
func ParseSettings(value string) (Settings, error) {
	if strings.TrimSpace(value) == "" {
		return Settings{}, errors.New("empty configuration")
	}
	fields := strings.Split(value, Separator)
	if len(fields) == fieldCount+1 && fields[fieldCount] == "" {
		fields = fields[:fieldCount]
	}
	if len(fields) != fieldCount {
		return Settings{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	var s Settings
	ints := []*int{&s.Width, &s.Height, &s.BuildCount, &s.DayCount}
	names := []string{"width", "height", "build count", "day count"}
	for i, dst := range ints {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", names[i], err)
		}
		*dst = n
	}
	s.GraphType = fields[4]

	switch fields[5] {
	case "0":
		s.UseBuildDate = false
	case "1":
		s.UseBuildDate = true
	default:
		return Settings{}, fmt.Errorf("use build date must be 0 or 1, got %q", fields[5])
	}
	s.ParameterName = fields[6]
	s.ParameterValue = fields[7]
	return s, nil
}

// Configuration describes how a trend graph selects and plots runs. A
// Configuration always holds valid settings: every failed initialization
// resets it to the defaults.
type Configuration struct {
	registry *Registry
	settings Settings
	graph    GraphType
}

// New returns a configuration with default settings. A nil registry means
// DefaultRegistry(DisabledHealth).
func New(registry *Registry) *Configuration {
	if registry == nil {
		registry = DefaultRegistry(DisabledHealth)
	}
	c := &Configuration{registry: registry}
	c.reset()
	return c
}

// NewConfiguration initializes a configuration from value. If value is
// invalid the serialized defaults in defaultsFile are tried, and if those
// fail too the built-in defaults are used.
func NewConfiguration(registry *Registry, value, defaultsFile string) *Configuration {
	c := New(registry)
	if c.InitializeFrom(value) {
		return c
	}
	if defaultsFile != "" {
		c.InitializeFromFile(defaultsFile)
	}
	return c
}

// Deactivated returns a configuration that renders no graph.
func Deactivated(registry *Registry) *Configuration {
	c := New(registry)
	s := DefaultSettings(TypeNone)
	if !c.commit(s) {
		c.graph = GraphType{ID: TypeNone, Extract: noneExtractor}
		c.settings = s
	}
	return c
}

// Parse parses and validates a serialized configuration, reporting what is
// wrong with it instead of falling back to the defaults.
func Parse(registry *Registry, value string) (*Configuration, error) {
	c := New(registry)
	s, err := ParseSettings(value)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(c.registry); err != nil {
		return nil, err
	}
	c.commit(s)
	return c, nil
}

func (c *Configuration) reset() {
	c.settings = DefaultSettings(c.registry.Default().ID)
	c.graph = c.registry.Default()
}

// commit replaces the current settings with s if s is valid, and resets to
// the defaults otherwise.
func (c *Configuration) commit(s Settings) bool {
	if s.Validate(c.registry) != nil {
		c.reset()
		return false
	}
	c.settings = s
	c.graph = c.registry.Lookup(s.GraphType)
	return true
}

// InitializeFrom parses the serialized form. On any error the configuration
// is reset to its defaults and false is returned.
func (c *Configuration) InitializeFrom(value string) bool {
	s, err := ParseSettings(value)
	if err != nil {
		c.reset()
		return false
	}
	return c.commit(s)
}

// InitializeFromSettings validates and applies s.
func (c *Configuration) InitializeFromSettings(s Settings) bool {
	return c.commit(s)
}

// InitializeFromValues sets up a date-based graph with the given size, day
// count and parameter filter. A blank day count means no day limit.
func (c *Configuration) InitializeFromValues(width, height, dayCount, parameterName, parameterValue string) bool {
	s := Settings{
		GraphType:      c.settings.GraphType,
		UseBuildDate:   true,
		ParameterName:  parameterName,
		ParameterValue: parameterValue,
	}
	var err error
	if s.Width, err = strconv.Atoi(strings.TrimSpace(width)); err != nil {
		c.reset()
		return false
	}
	if s.Height, err = strconv.Atoi(strings.TrimSpace(height)); err != nil {
		c.reset()
		return false
	}
	if s.DayCount, err = parseCount(dayCount); err != nil {
		c.reset()
		return false
	}
	return c.commit(s)
}

// InitializeFromMap reads the structured form. Keys are width, height,
// buildCountString, dayCountString, graphType, useBuildDateAsDomain,
// parameterName and parameterValue. Blank or missing counts mean 0 and
// missing parameter keys mean no filter.
func (c *Configuration) InitializeFromMap(values map[string]any) bool {
	s, err := settingsFromMap(values)
	if err != nil {
		c.reset()
		return false
	}
	return c.commit(s)
}

// InitializeFromJSON reads the structured form from a JSON object.
func (c *Configuration) InitializeFromJSON(data []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		c.reset()
		return false
	}
	return c.InitializeFromMap(values)
}

// InitializeFromFile reads a serialized configuration from path. Only the
// trailing line break is dropped; the fields are used as written.
func (c *Configuration) InitializeFromFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		c.reset()
		return false
	}
	return c.InitializeFrom(strings.TrimRight(string(data), "\r\n"))
}

// Serialize returns the "!"-separated form. InitializeFrom(Serialize())
// restores an equal configuration.
func (c *Configuration) Serialize() string {
	return c.settings.Serialize()
}

// Validate checks the current settings.
func (c *Configuration) Validate() error {
	return c.settings.Validate(c.registry)
}

// Settings returns a copy of the current settings.
func (c *Configuration) Settings() Settings {
	return c.settings
}

// Registry returns the graph type registry.
func (c *Configuration) Registry() *Registry {
	return c.registry
}

func (c *Configuration) Width() int  { return c.settings.Width }
func (c *Configuration) Height() int { return c.settings.Height }

// BuildCount returns the number of builds to consider.
func (c *Configuration) BuildCount() int {
	return c.settings.BuildCount
}

// IsBuildCountDefined reports whether the window is bounded by build count.
func (c *Configuration) IsBuildCountDefined() bool {
	return c.settings.BuildCount > 1
}

// BuildCountString returns the build count, or "" when it is not defined.
func (c *Configuration) BuildCountString() string {
	if c.IsBuildCountDefined() {
		return strconv.Itoa(c.settings.BuildCount)
	}
	return ""
}

// DayCount returns the number of days to consider.
func (c *Configuration) DayCount() int {
	return c.settings.DayCount
}

// IsDayCountDefined reports whether the window is bounded by age.
func (c *Configuration) IsDayCountDefined() bool {
	return c.settings.DayCount > 0
}

// DayCountString returns the day count, or "" when it is not defined.
func (c *Configuration) DayCountString() string {
	if c.IsDayCountDefined() {
		return strconv.Itoa(c.settings.DayCount)
	}
	return ""
}

// UseBuildDateAsDomain reports whether the x-axis is the build date.
func (c *Configuration) UseBuildDateAsDomain() bool {
	return c.settings.UseBuildDate
}

// ParameterFilter returns the build parameter runs must carry.
func (c *Configuration) ParameterFilter() (name, value string) {
	return c.settings.ParameterName, c.settings.ParameterValue
}

// GraphType returns the selected graph type.
func (c *Configuration) GraphType() GraphType {
	return c.graph
}

// Extractor returns the series extractor of the selected graph type.
func (c *Configuration) Extractor() trend.SeriesExtractor {
	return c.graph.Extract
}

// IsDefault reports whether size, graph type and window are the defaults.
func (c *Configuration) IsDefault() bool {
	s := c.settings
	return s.Width == DefaultWidth &&
		s.Height == DefaultHeight &&
		s.GraphType == c.registry.Default().ID &&
		s.BuildCount == defaultCount &&
		s.DayCount == defaultCount
}

// IsVisible reports whether the graph renders anything.
func (c *Configuration) IsVisible() bool {
	return c.graph.Visible
}

// Equal reports whether both configurations hold the same settings.
func (c *Configuration) Equal(o *Configuration) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.settings == o.settings
}

func (c *Configuration) String() string {
	s := c.settings
	return fmt.Sprintf("type: %s, size: %dx%d, # builds %d, # days %d, useBuildDate: %t, parameterName: %s, parameterValue: %s",
		s.GraphType, s.Width, s.Height, s.BuildCount, s.DayCount, s.UseBuildDate, s.ParameterName, s.ParameterValue)
}

var _ trend.WindowConfig = (*Configuration)(nil)
