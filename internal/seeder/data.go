package seeder

import "ackee/internal/records"

var journeys = [][]string{
	{"/", "/about", "/contact"},
	{"/", "/features", "/pricing", "/signup"},
	{"/", "/blog", "/blog/article-1", "/signup"},
	{"/pricing", "/features", "/signup"},
	{"/", "/docs", "/docs/getting-started", "/docs/api-reference"},
	{"/", "/blog", "/blog/article-1", "/blog/article-2"},
	{"/"},
	{"/blog/article-1"},
}

// Empty entries are direct visits.
var referrers = []string{
	"",
	"",
	"https://www.google.com/",
	"https://duckduckgo.com/",
	"https://news.ycombinator.com/",
	"https://twitter.com/",
	"https://github.com/",
}

var languages = []string{"en", "en", "en-US", "de", "fr", "es", "ja"}

type profile struct {
	userAgent      string
	osName         string
	osVersion      string
	browserName    string
	browserVersion string
	manufacturer   string
	device         string
	screen         [2]int64
	browser        [2]int64
}

func (p profile) attributes() records.Attributes {
	a := records.Attributes{
		OSName:         ptr(p.osName),
		OSVersion:      ptr(p.osVersion),
		BrowserName:    ptr(p.browserName),
		BrowserVersion: ptr(p.browserVersion),
		ScreenWidth:    ptr(p.screen[0]),
		ScreenHeight:   ptr(p.screen[1]),
		BrowserWidth:   ptr(p.browser[0]),
		BrowserHeight:  ptr(p.browser[1]),
	}
	if p.manufacturer != "" {
		a.DeviceManufacturer = ptr(p.manufacturer)
		a.DeviceName = ptr(p.device)
	}
	return a
}

var profiles = []profile{
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36",
		osName:         "Windows",
		osVersion:      "10",
		browserName:    "Chrome",
		browserVersion: "108.0",
		screen:         [2]int64{1920, 1080},
		browser:        [2]int64{1903, 961},
	},
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
		osName:         "Mac OS",
		osVersion:      "10.15.7",
		browserName:    "Safari",
		browserVersion: "16.1",
		screen:         [2]int64{1440, 900},
		browser:        [2]int64{1440, 789},
	},
	{
		userAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 16_1_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Mobile/15E148 Safari/605.1",
		osName:         "iOS",
		osVersion:      "16.1.1",
		browserName:    "Mobile Safari",
		browserVersion: "16.1",
		manufacturer:   "Apple",
		device:         "iPhone",
		screen:         [2]int64{390, 844},
		browser:        [2]int64{390, 664},
	},
	{
		userAgent:      "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Mobile Safari/537.36",
		osName:         "Android",
		osVersion:      "13",
		browserName:    "Chrome",
		browserVersion: "108.0",
		manufacturer:   "Google",
		device:         "Pixel 7",
		screen:         [2]int64{412, 915},
		browser:        [2]int64{412, 782},
	},
	{
		userAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0",
		osName:         "Linux",
		osVersion:      "x86_64",
		browserName:    "Firefox",
		browserVersion: "120.0",
		screen:         [2]int64{2560, 1440},
		browser:        [2]int64{2560, 1301},
	},
}
