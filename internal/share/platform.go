package share

import (
	"regexp"
	"runtime"
	"strings"
)

// Platform is the device class the broadcast is sent from
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

var (
	androidUA = regexp.MustCompile(`(?i)android`)
	iosUA     = regexp.MustCompile(`iPad|iPhone|iPod`)
)

// DetectPlatform classifies a user agent string
func DetectPlatform(userAgent string) Platform {
	switch {
	case androidUA.MatchString(userAgent):
		return PlatformAndroid
	case iosUA.MatchString(userAgent):
		return PlatformIOS
	default:
		return PlatformWeb
	}
}

// ResolvePlatform turns a configured platform setting into a Platform.
// "auto" or an unknown value is resolved from the host OS.
func ResolvePlatform(setting string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(setting))) {
	case PlatformAndroid:
		return PlatformAndroid
	case PlatformIOS:
		return PlatformIOS
	case PlatformWeb:
		return PlatformWeb
	}
	switch runtime.GOOS {
	case "android":
		return PlatformAndroid
	case "ios":
		return PlatformIOS
	default:
		return PlatformWeb
	}
}

// IsMobile reports whether the platform has native messaging
func (p Platform) IsMobile() bool {
	return p == PlatformAndroid || p == PlatformIOS
}

// Capabilities is resolved once at startup and injected into the workflow
type Capabilities struct {
	Platform         Platform `json:"platform"`
	CanSendNativeSMS bool     `json:"canSendNativeSMS"`
	CanShareNatively bool     `json:"canShareNatively"`
}

// CapabilitiesFor returns the capabilities of a platform
func CapabilitiesFor(p Platform) Capabilities {
	return Capabilities{
		Platform:         p,
		CanSendNativeSMS: p.IsMobile(),
		CanShareNatively: p.IsMobile(),
	}
}

// Labels lists the features shown in the confirmation summary
func (c Capabilities) Labels() []string {
	if c.CanSendNativeSMS {
		return []string{"SMS", "WhatsApp", "Location", "Vibration", "Sound"}
	}
	return []string{"WhatsApp", "Location", "Sound"}
}
