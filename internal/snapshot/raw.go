package snapshot

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Raw field types decode leniently: a value of the wrong JSON type never fails
// the surrounding decode. It is recorded as Set but not Valid so the
// normalizer can decide whether that is fatal for the channel.

var jsonNull = []byte("null")

// Count is a non-validated integer field.
type Count struct {
	Value int64
	Set   bool
	Valid bool
}

// NewCount returns a valid, present count.
func NewCount(v int64) Count {
	return Count{Value: v, Set: true, Valid: true}
}

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}
	c.Set = true

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		c.Value, c.Valid = n, true
		return nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		c.Value, c.Valid = floatToInt64(f)
	}
	return nil
}

// floatToInt64 truncates f, rejecting values int64 cannot hold.
func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Set || !c.Valid {
		return jsonNull, nil
	}
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// Text is a string field that must be a JSON string to be valid.
type Text struct {
	Value string
	Set   bool
	Valid bool
}

// NewText returns a valid, present text value.
func NewText(s string) Text {
	return Text{Value: s, Set: true, Valid: true}
}

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}
	t.Set = true
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Value, t.Valid = s, true
	}
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Set || !t.Valid {
		return jsonNull, nil
	}
	return json.Marshal(t.Value)
}

// String returns the trimmed value, or "" when absent or invalid.
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

// Timestamp accepts RFC 3339 strings or Unix seconds.
type Timestamp struct {
	Value time.Time
	Set   bool
	Valid bool
}

// NewTimestamp returns a valid, present timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Value: t, Set: true, Valid: true}
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}
	ts.Set = true

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if t, ok := ParseTime(s); ok {
			ts.Value, ts.Valid = t, true
		}
		return nil
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		ts.Value, ts.Valid = time.Unix(n, 0).UTC(), true
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Set || !ts.Valid {
		return jsonNull, nil
	}
	return json.Marshal(ts.Value.UTC().Format(time.RFC3339))
}

// ParseTime parses the timestamp layouts the upstream platform emits.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Duration accepts ISO-8601 durations (PT1M5S), digit strings or numbers of seconds.
type Duration struct {
	Seconds int64
	Valid   bool
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	*d = Duration{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		d.Seconds, d.Valid = ParseDuration(s)
		return nil
	}
	if f, err := strconv.ParseFloat(string(data), 64); err == nil && f >= 0 {
		d.Seconds, d.Valid = floatToInt64(f)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return jsonNull, nil
	}
	return []byte(strconv.FormatInt(d.Seconds, 10)), nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts "PT1M5S" or "65" to seconds.
func ParseDuration(s string) (int64, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n >= 0 {
		return n, true
	}
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, false
	}
	var total int64
	for i, unit := range []int64{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || n > (math.MaxInt64-total)/unit {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}

// RawVideo is one upload as delivered by the collector.
type RawVideo struct {
	VideoID     Text      `json:"video_id"`
	Title       Text      `json:"title"`
	ViewCount   Count     `json:"view_count"`
	LikeCount   Count     `json:"like_count"`
	PublishedAt Timestamp `json:"published_at"`
	Duration    Duration  `json:"duration"`
}

// VideoList is the upload list of a raw channel. An absent list and a list of
// the wrong type are both distinguishable from an empty one.
type VideoList struct {
	Items []RawVideo
	Set   bool
	Valid bool
}

// NewVideoList returns a present list; a nil slice is treated as empty.
func NewVideoList(items []RawVideo) VideoList {
	return VideoList{Items: items, Set: true, Valid: true}
}

func (l *VideoList) UnmarshalJSON(data []byte) error {
	*l = VideoList{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}
	l.Set = true

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil
	}
	l.Valid = true
	for _, elem := range elems {
		var v RawVideo
		if err := json.Unmarshal(elem, &v); err != nil {
			// not an object; the normalizer would drop it anyway
			continue
		}
		l.Items = append(l.Items, v)
	}
	return nil
}

func (l VideoList) MarshalJSON() ([]byte, error) {
	if !l.Set || !l.Valid {
		return jsonNull, nil
	}
	if l.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Items)
}

// RawChannel is one channel record as delivered by the collector.
type RawChannel struct {
	ChannelID             Text      `json:"channel_id"`
	Name                  Text      `json:"name"`
	Description           Text      `json:"description"`
	Keywords              Text      `json:"keywords"`
	SubscriberCount       Count     `json:"subscriber_count"`
	ViewCount             Count     `json:"view_count"`
	VideoCount            Count     `json:"video_count"`
	SubscriberCount14dAgo Count     `json:"subscriber_count_14d_ago"`
	CreatedAt             Timestamp `json:"created_at"`
	Videos                VideoList `json:"videos"`
}
