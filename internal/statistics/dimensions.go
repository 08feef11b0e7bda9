package statistics

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"ackee/internal/pipeline"
)

// Statistic types.
const (
	TypeNoVersion   = "NO_VERSION"
	TypeWithVersion = "WITH_VERSION"
	TypeNoModel     = "NO_MODEL"
	TypeWithModel   = "WITH_MODEL"

	TypeBrowserWidth      = "BROWSER_WIDTH"
	TypeBrowserHeight     = "BROWSER_HEIGHT"
	TypeBrowserResolution = "BROWSER_RESOLUTION"
	TypeScreenWidth       = "SCREEN_WIDTH"
	TypeScreenHeight      = "SCREEN_HEIGHT"
	TypeScreenResolution  = "SCREEN_RESOLUTION"
)

// dimensionQuery is the grouping behind one statistic type. For recent sorting only the first
// field is used.
type dimensionQuery struct {
	fields []pipeline.Field
	label  func(values []string) string
}

type dimensionStat struct {
	name        string
	defaultType string
	types       map[string]dimensionQuery
}

func (d dimensionStat) query(typ string) (dimensionQuery, string, error) {
	if typ == "" {
		typ = d.defaultType
	}
	q, ok := d.types[strings.ToUpper(typ)]
	if !ok {
		return dimensionQuery{}, "", fmt.Errorf("%w: %q for %s", ErrInvalidType, typ, d.name)
	}
	return q, strings.ToUpper(typ), nil
}

func joined(values []string) string {
	return strings.Join(values, " ")
}

func pixels(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v + "px"
	}
	return strings.Join(parts, " x ")
}

var englishLanguages = display.English.Languages()

// languageName turns a language tag into its English name, keeping unknown tags verbatim.
func languageName(values []string) string {
	raw := joined(values)
	tag, err := language.Parse(raw)
	if err != nil {
		return raw
	}
	if name := englishLanguages.Name(tag); name != "" {
		return name
	}
	return raw
}

func single(f pipeline.Field, label func([]string) string) map[string]dimensionQuery {
	return map[string]dimensionQuery{"": {fields: []pipeline.Field{f}, label: label}}
}

var dimensionStats = []dimensionStat{
	{name: "pages", types: single(pipeline.FieldSiteLocation, joined)},
	{name: "referrers", types: single(pipeline.FieldSiteReferrer, joined)},
	{name: "languages", types: single(pipeline.FieldSiteLanguage, languageName)},
	{
		name:        "systems",
		defaultType: TypeNoVersion,
		types: map[string]dimensionQuery{
			TypeNoVersion:   {fields: []pipeline.Field{pipeline.FieldOSName}, label: joined},
			TypeWithVersion: {fields: []pipeline.Field{pipeline.FieldOSName, pipeline.FieldOSVersion}, label: joined},
		},
	},
	{
		name:        "devices",
		defaultType: TypeNoModel,
		types: map[string]dimensionQuery{
			TypeNoModel:   {fields: []pipeline.Field{pipeline.FieldDeviceManufacturer}, label: joined},
			TypeWithModel: {fields: []pipeline.Field{pipeline.FieldDeviceManufacturer, pipeline.FieldDeviceName}, label: joined},
		},
	},
	{
		name:        "browsers",
		defaultType: TypeNoVersion,
		types: map[string]dimensionQuery{
			TypeNoVersion:   {fields: []pipeline.Field{pipeline.FieldBrowserName}, label: joined},
			TypeWithVersion: {fields: []pipeline.Field{pipeline.FieldBrowserName, pipeline.FieldBrowserVersion}, label: joined},
		},
	},
	{
		name:        "sizes",
		defaultType: TypeBrowserResolution,
		types: map[string]dimensionQuery{
			TypeBrowserWidth:      {fields: []pipeline.Field{pipeline.FieldBrowserWidth}, label: pixels},
			TypeBrowserHeight:     {fields: []pipeline.Field{pipeline.FieldBrowserHeight}, label: pixels},
			TypeBrowserResolution: {fields: []pipeline.Field{pipeline.FieldBrowserWidth, pipeline.FieldBrowserHeight}, label: pixels},
			TypeScreenWidth:       {fields: []pipeline.Field{pipeline.FieldScreenWidth}, label: pixels},
			TypeScreenHeight:      {fields: []pipeline.Field{pipeline.FieldScreenHeight}, label: pixels},
			TypeScreenResolution:  {fields: []pipeline.Field{pipeline.FieldScreenWidth, pipeline.FieldScreenHeight}, label: pixels},
		},
	},
}

func findDimensionStat(name string) (dimensionStat, bool) {
	for _, d := range dimensionStats {
		if d.name == name {
			return d, true
		}
	}
	return dimensionStat{}, false
}
