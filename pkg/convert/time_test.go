package convert

import "testing"

// TestTimestamp verifies legacy created_at strings rewrite to ISO 8601
// and anything unparseable maps to the epoch instead of failing.
func TestTimestamp(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"Wed Oct 05 20:12:05 +0000 2022", "2022-10-05T20:12:05.000Z"},
		{"Mon Jan 02 03:04:05 +0000 2017", "2017-01-02T03:04:05.000Z"},
		{"Thu Dec 31 23:59:59 +0000 1999", "1999-12-31T23:59:59.000Z"},
		{"", epochTimestamp},
		{"yesterday", epochTimestamp},
		{"Wed Oct 5 20:12:05 +0000 2022", epochTimestamp}, // day not zero-padded
	}
	for _, tc := range cases {
		if got := Timestamp(tc.in); got != tc.want {
			t.Errorf("Timestamp(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestPollTimestamp verifies the poll expiry rewrite and that empty
// input stays empty.
func TestPollTimestamp(t *testing.T) {
	t.Parallel()
	if got := PollTimestamp("2023-01-02T03:04:05Z"); got != "2023-01-02T03:04:05.000Z" {
		t.Errorf("PollTimestamp = %q", got)
	}
	if got := PollTimestamp(""); got != "" {
		t.Errorf("PollTimestamp(\"\") = %q, want empty", got)
	}
}
