package source

import (
	"regexp"
	"strings"
)

var (
	reBVID     = regexp.MustCompile(`BV[a-zA-Z0-9]{10}`)
	reSpaceUID = regexp.MustCompile(`space\.bilibili\.com/(\d+)`)
	reTailUID  = regexp.MustCompile(`/(\d+)/?$`)
)

// ExtractBVID returns the BV id embedded in a Bilibili URL
func ExtractBVID(url string) (string, bool) {
	id := reBVID.FindString(url)
	return id, id != ""
}

// ExtractUID returns the uploader id of a space URL
func ExtractUID(url string) (string, bool) {
	if m := reSpaceUID.FindStringSubmatch(url); m != nil {
		return m[1], true
	}
	if m := reTailUID.FindStringSubmatch(url); m != nil {
		return m[1], true
	}
	return "", false
}

// IsVideoURL reports whether url points at a single video rather than a channel
func IsVideoURL(url string) bool {
	if strings.Contains(url, "/video/") {
		return true
	}
	_, ok := ExtractBVID(url)
	return ok
}

// SpaceURL builds the channel listing URL for an uploader id
func SpaceURL(uid string) string {
	return "https://space.bilibili.com/" + uid + "/video"
}

func videoURL(id, fallback string) string {
	if bvid, ok := ExtractBVID(id); ok {
		return "https://www.bilibili.com/video/" + bvid
	}
	if fallback != "" {
		return fallback
	}
	return id
}
