package records

import (
	"time"

	"ackee/internal/pipeline"
)

// Record is a single tracked visit. Dimension columns are nullable; a nil pointer means the
// tracker did not report the value or it was anonymized.
type Record struct {
	ID                 string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	DomainID           string    `gorm:"column:domain_id;size:36;not null;index:idx_records_domain_created" json:"domainId"`
	ClientID           *string   `gorm:"column:client_id;size:64;index" json:"-"`
	SiteLocation       *string   `gorm:"column:site_location" json:"siteLocation"`
	SiteReferrer       *string   `gorm:"column:site_referrer" json:"siteReferrer"`
	SiteLanguage       *string   `gorm:"column:site_language" json:"siteLanguage"`
	ScreenWidth        *int64    `gorm:"column:screen_width" json:"screenWidth"`
	ScreenHeight       *int64    `gorm:"column:screen_height" json:"screenHeight"`
	ScreenColorDepth   *int64    `gorm:"column:screen_color_depth" json:"screenColorDepth"`
	DeviceName         *string   `gorm:"column:device_name" json:"deviceName"`
	DeviceManufacturer *string   `gorm:"column:device_manufacturer" json:"deviceManufacturer"`
	OSName             *string   `gorm:"column:os_name" json:"osName"`
	OSVersion          *string   `gorm:"column:os_version" json:"osVersion"`
	BrowserName        *string   `gorm:"column:browser_name" json:"browserName"`
	BrowserVersion     *string   `gorm:"column:browser_version" json:"browserVersion"`
	BrowserWidth       *int64    `gorm:"column:browser_width" json:"browserWidth"`
	BrowserHeight      *int64    `gorm:"column:browser_height" json:"browserHeight"`
	Created            time.Time `gorm:"column:created;not null;index:idx_records_domain_created" json:"created"`
	Updated            time.Time `gorm:"column:updated;not null" json:"updated"`
}

func (Record) TableName() string {
	return "records"
}

// columns maps pipeline fields onto record columns.
var columns = map[pipeline.Field]string{
	pipeline.FieldDomainID:           "domain_id",
	pipeline.FieldCreated:            "created",
	pipeline.FieldSiteLocation:       "site_location",
	pipeline.FieldSiteReferrer:       "site_referrer",
	pipeline.FieldSiteLanguage:       "site_language",
	pipeline.FieldScreenWidth:        "screen_width",
	pipeline.FieldScreenHeight:       "screen_height",
	pipeline.FieldScreenColorDepth:   "screen_color_depth",
	pipeline.FieldDeviceName:         "device_name",
	pipeline.FieldDeviceManufacturer: "device_manufacturer",
	pipeline.FieldOSName:             "os_name",
	pipeline.FieldOSVersion:          "os_version",
	pipeline.FieldBrowserName:        "browser_name",
	pipeline.FieldBrowserVersion:     "browser_version",
	pipeline.FieldBrowserWidth:       "browser_width",
	pipeline.FieldBrowserHeight:      "browser_height",
}

// Column returns the storage column backing a field.
func Column(f pipeline.Field) (string, bool) {
	c, ok := columns[f]
	return c, ok
}

// anonymizedColumns are cleared on a client's earlier records once a newer visit arrives.
// Location and referrer survive so page and referrer statistics keep their history.
var anonymizedColumns = []string{
	"client_id",
	"site_language",
	"screen_width",
	"screen_height",
	"screen_color_depth",
	"device_name",
	"device_manufacturer",
	"os_name",
	"os_version",
	"browser_name",
	"browser_version",
	"browser_width",
	"browser_height",
}
