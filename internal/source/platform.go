package source

import (
	"net/url"
	"strings"
)

// Platforms recognised from a source URL's host.
const (
	PlatformYouTube   = "youtube"
	PlatformVimeo     = "vimeo"
	PlatformSpotify   = "spotify"
	PlatformX         = "x"
	PlatformThreads   = "threads"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// EditorialScheme is the sentinel address space for editorial content.
const EditorialScheme = "editorial"

var platformHosts = map[string]string{
	"youtube.com":       PlatformYouTube,
	"youtu.be":          PlatformYouTube,
	"vimeo.com":         PlatformVimeo,
	"open.spotify.com":  PlatformSpotify,
	"spotify.com":       PlatformSpotify,
	"twitter.com":       PlatformX,
	"x.com":             PlatformX,
	"threads.net":       PlatformThreads,
	"www.threads.com":   PlatformThreads,
	"instagram.com":     PlatformInstagram,
	"tiktok.com":        PlatformTikTok,
	"vm.tiktok.com":     PlatformTikTok,
	"music.youtube.com": PlatformYouTube,
}

// DetectPlatform returns the platform name for rawURL, or "" for ordinary
// web pages.
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for {
		if p, ok := platformHosts[host]; ok {
			return p
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 || !strings.Contains(host[dot+1:], ".") {
			return ""
		}
		host = host[dot+1:]
	}
}

// IsMediaPlatform reports whether the platform serves audio or video whose
// content needs a transcript.
func IsMediaPlatform(platform string) bool {
	switch platform {
	case PlatformYouTube, PlatformVimeo, PlatformSpotify, PlatformTikTok:
		return true
	}
	return false
}

// IsShortFormPlatform reports whether posts on the platform are short
// social updates rather than articles.
func IsShortFormPlatform(platform string) bool {
	return platform == PlatformX || platform == PlatformThreads
}

// EditorialID returns the editorial id when rawURL is in the editorial
// address space ("editorial://<id>").
func EditorialID(rawURL string) (string, bool) {
	prefix := EditorialScheme + "://"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	id := strings.Trim(strings.TrimPrefix(rawURL, prefix), "/")
	return id, id != ""
}

// EditorialURL builds the sentinel address for an editorial id.
func EditorialURL(id string) string {
	return EditorialScheme + "://" + id
}
