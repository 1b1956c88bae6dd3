package placeholders

import (
	"strconv"
	"time"
)

var now = time.Now

func resolveUnixTimestamp() (string, error) {
	return strconv.FormatInt(now().UTC().Unix(), 10), nil
}

// Contains colons, which image tags do not allow. Combine with replace_all when used as a tag.
func resolveISO8601Timestamp() (string, error) {
	return now().UTC().Format(time.RFC3339), nil
}

func resolveCompactTimestamp() (string, error) {
	return now().UTC().Format("20060102150405"), nil
}
