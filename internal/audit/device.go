package audit

import (
	"regexp"
	"strings"

	"github.com/mssola/useragent"
)

// Tablet signatures are checked before mobile ones; most tablet agents also
// contain mobile markers and would misclassify the other way around.
var (
	tabletPattern = regexp.MustCompile(`tablet|ipad|playbook|silk`)
	mobilePattern = regexp.MustCompile(`mobile|iphone|ipod|android|blackberry|opera mini|opera mobi|skyfire|maemo|windows phone|palm|iemobile|symbian|fennec`)
)

// ClassifyDevice maps a raw User-Agent to a coarse device family.
func ClassifyDevice(ua string) DeviceClass {
	if ua == "" {
		return DeviceUnknown
	}
	lower := strings.ToLower(ua)

	// Android tablets carry "android" without "mobile".
	if tabletPattern.MatchString(lower) ||
		(strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")) {
		return DeviceTablet
	}
	if useragent.New(ua).Mobile() || mobilePattern.MatchString(lower) {
		return DeviceMobile
	}
	return DeviceDesktop
}
