package convert

import "regexp"

// epochTimestamp is returned for timestamps that fail to parse.
const epochTimestamp = "1970-01-01T00:00:00.000Z"

var months = map[string]string{
	"Jan": "01",
	"Feb": "02",
	"Mar": "03",
	"Apr": "04",
	"May": "05",
	"Jun": "06",
	"Jul": "07",
	"Aug": "08",
	"Sep": "09",
	"Oct": "10",
	"Nov": "11",
	"Dec": "12",
}

// "Wed Oct 05 20:12:05 +0000 2022"
var legacyTimestampRe = regexp.MustCompile(`^.{3} (.{3}) (\d\d) (\d\d):(\d\d):(\d\d) \+.{4} (\d{4})$`)

// Timestamp rewrites a legacy "created_at" timestamp into the ISO 8601
// form Mastodon clients expect. Unparseable input maps to the Unix epoch
// rather than an error.
func Timestamp(ts string) string {
	bits := legacyTimestampRe.FindStringSubmatch(ts)
	if bits == nil {
		return epochTimestamp
	}
	month, day := months[bits[1]], bits[2]
	hour, minute, second := bits[3], bits[4], bits[5]
	year := bits[6]
	return year + "-" + month + "-" + day + "T" + hour + ":" + minute + ":" + second + ".000Z"
}

// PollTimestamp rewrites a poll card timestamp ("2023-01-02T03:04:05Z")
// into the millisecond form.
func PollTimestamp(ts string) string {
	if ts == "" {
		return ts
	}
	return ts[:len(ts)-1] + ".000Z"
}
