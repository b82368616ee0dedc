package ytvideodata

import (
	"regexp"
)

const IDLength = 11

// Matches watch (?v= / &v=), youtu.be share links, /embed/, /v/, /e/ paths and
// the youtube.com/<seg>/<seg>/<id> shape. Scheme and www. are optional.
var videoIDRegexp = regexp.MustCompile(
	`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`,
)

// ExtractID returns the video id embedded in text. The second value is false
// when text does not contain a known YouTube URL shape.
func ExtractID(text string) (string, bool) {
	match := videoIDRegexp.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	return match[1], true
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
