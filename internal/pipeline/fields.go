package pipeline

import (
	"fmt"
)

// Field names a column of an event record. The name is unexported, so the only Fields that
// exist are the package variables below, values returned by ParseField, and the zero Field,
// which names no column and is rejected by the executor.
type Field struct {
	name string
}

// Record columns that are not dimensions.
var (
	FieldDomainID = Field{"domainId"}
	FieldCreated  = Field{"created"}
)

// Dimension fields.
var (
	FieldSiteLocation       = Field{"siteLocation"}
	FieldSiteReferrer       = Field{"siteReferrer"}
	FieldSiteLanguage       = Field{"siteLanguage"}
	FieldScreenWidth        = Field{"screenWidth"}
	FieldScreenHeight       = Field{"screenHeight"}
	FieldScreenColorDepth   = Field{"screenColorDepth"}
	FieldDeviceName         = Field{"deviceName"}
	FieldDeviceManufacturer = Field{"deviceManufacturer"}
	FieldOSName             = Field{"osName"}
	FieldOSVersion          = Field{"osVersion"}
	FieldBrowserName        = Field{"browserName"}
	FieldBrowserVersion     = Field{"browserVersion"}
	FieldBrowserWidth       = Field{"browserWidth"}
	FieldBrowserHeight      = Field{"browserHeight"}
)

var dimensions = []Field{
	FieldSiteLocation,
	FieldSiteReferrer,
	FieldSiteLanguage,
	FieldScreenWidth,
	FieldScreenHeight,
	FieldScreenColorDepth,
	FieldDeviceName,
	FieldDeviceManufacturer,
	FieldOSName,
	FieldOSVersion,
	FieldBrowserName,
	FieldBrowserVersion,
	FieldBrowserWidth,
	FieldBrowserHeight,
}

var dimensionsByName = func() map[string]Field {
	byName := make(map[string]Field, len(dimensions))
	for _, f := range dimensions {
		byName[f.name] = f
	}
	return byName
}()

// UnknownFieldError is returned by ParseField for names outside the allow-list.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown dimension field: %q", e.Name)
}

// Dimensions returns every recognized dimension field in declaration order.
func Dimensions() []Field {
	out := make([]Field, len(dimensions))
	copy(out, dimensions)
	return out
}

// IsDimension reports whether f is a groupable dimension.
func (f Field) IsDimension() bool {
	d, ok := dimensionsByName[f.name]
	return ok && d == f
}

// IsColumn reports whether f is any record column known to the executor.
func (f Field) IsColumn() bool {
	return f == FieldDomainID || f == FieldCreated || f.IsDimension()
}

func (f Field) String() string {
	return f.name
}

// ParseField validates a caller supplied name against the dimension allow-list.
func ParseField(name string) (Field, error) {
	f, ok := dimensionsByName[name]
	if !ok {
		return Field{}, &UnknownFieldError{Name: name}
	}
	return f, nil
}

// ParseFields validates every name, failing on the first unknown one.
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
