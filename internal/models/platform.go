package models

// Platform identifies a target social network
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformX         Platform = "x"
	PlatformTikTok    Platform = "tiktok"
)

// PlatformLimits captures the per-platform content constraints applied
// during text validation and image sizing.
type PlatformLimits struct {
	MaxCharacters      int  `json:"max_characters"`
	SupportsHashtags   bool `json:"supports_hashtags"`
	SupportsEmojis     bool `json:"supports_emojis"`
	SupportsLineBreaks bool `json:"supports_line_breaks"`
	MaxSlides          int  `json:"max_slides"` // Carousel slide cap, 0 = no carousel support
	ImageWidth         int  `json:"image_width"`
	ImageHeight        int  `json:"image_height"`
}

// platformLimits is the fixed limit table. Values follow published platform
// constraints; validation rejects text above MaxCharacters before any image
// work starts.
var platformLimits = map[Platform]PlatformLimits{
	PlatformInstagram: {
		MaxCharacters:      2200,
		SupportsHashtags:   true,
		SupportsEmojis:     true,
		SupportsLineBreaks: true,
		MaxSlides:          10,
		ImageWidth:         1080,
		ImageHeight:        1350,
	},
	PlatformFacebook: {
		MaxCharacters:      63206,
		SupportsHashtags:   true,
		SupportsEmojis:     true,
		SupportsLineBreaks: true,
		MaxSlides:          10,
		ImageWidth:         1200,
		ImageHeight:        630,
	},
	PlatformLinkedIn: {
		MaxCharacters:      3000,
		SupportsHashtags:   true,
		SupportsEmojis:     false,
		SupportsLineBreaks: true,
		MaxSlides:          9,
		ImageWidth:         1200,
		ImageHeight:        627,
	},
	PlatformX: {
		MaxCharacters:      280,
		SupportsHashtags:   true,
		SupportsEmojis:     true,
		SupportsLineBreaks: false,
		MaxSlides:          4,
		ImageWidth:         1600,
		ImageHeight:        900,
	},
	PlatformTikTok: {
		MaxCharacters:      2200,
		SupportsHashtags:   true,
		SupportsEmojis:     true,
		SupportsLineBreaks: true,
		MaxSlides:          0,
		ImageWidth:         1080,
		ImageHeight:        1920,
	},
}

// LimitsFor returns the limit table entry for a platform.
// Unknown platforms get a conservative default rather than a panic.
func LimitsFor(platform Platform) PlatformLimits {
	if limits, ok := platformLimits[platform]; ok {
		return limits
	}
	return PlatformLimits{
		MaxCharacters:      280,
		SupportsHashtags:   false,
		SupportsEmojis:     false,
		SupportsLineBreaks: false,
		MaxSlides:          0,
		ImageWidth:         1080,
		ImageHeight:        1080,
	}
}

// IsValid reports whether the platform is one of the supported networks
func (p Platform) IsValid() bool {
	_, ok := platformLimits[p]
	return ok
}
