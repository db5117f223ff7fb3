// Package platform detects the runtime environment of the speech engine.
package platform

import "regexp"

var mobileAgent = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsMobileUserAgent reports whether ua belongs to a mobile browser. Mobile
// engines end recognition sessions on their own far more often.
func IsMobileUserAgent(ua string) bool {
	return mobileAgent.MatchString(ua)
}
