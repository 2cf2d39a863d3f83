package keepass

import (
	"strings"
	"time"

	"github.com/tobischo/gokeepasslib/v3"
	"github.com/tobischo/gokeepasslib/v3/wrappers"
)

// Standard KeePass value keys.
const (
	KeyTitle    = "Title"
	KeyUserName = "UserName"
	KeyPassword = "Password"
	KeyURL      = "URL"
	KeyNotes    = "Notes"
)

var reservedKeys = map[string]bool{
	KeyTitle:    true,
	KeyUserName: true,
	KeyPassword: true,
	KeyURL:      true,
	KeyNotes:    true,
}

// IsReservedKey reports whether key is one of the standard KeePass fields.
func IsReservedKey(key string) bool {
	return reservedKeys[key]
}

// Property is a custom string field of an entry.
type Property struct {
	Key       string
	Value     string
	Protected bool
}

// Attachment is a file stored in the database binary pool.
type Attachment struct {
	Name string
	Data []byte
}

// Entry is the input for Store.AddEntry.
type Entry struct {
	// ID is the source item identifier. A UUID-shaped ID becomes the
	// KeePass entry UUID when it is not taken yet.
	ID string

	Title    string
	UserName string
	Password string
	URL      string
	Notes    string
	Tags     []string

	Created  time.Time
	Modified time.Time

	Properties  []Property
	Attachments []Attachment
}

// Set adds a custom property, replacing an earlier one with the same key.
func (e *Entry) Set(key, value string, protected bool) {
	for i := range e.Properties {
		if e.Properties[i].Key == key {
			e.Properties[i].Value = value
			e.Properties[i].Protected = protected
			return
		}
	}
	e.Properties = append(e.Properties, Property{Key: key, Value: value, Protected: protected})
}

// Get returns the value of a custom property.
func (e *Entry) Get(key string) (string, bool) {
	for _, p := range e.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func mkValue(key, value string) gokeepasslib.ValueData {
	return gokeepasslib.ValueData{
		Key:   key,
		Value: gokeepasslib.V{Content: value},
	}
}

func mkProtectedValue(key, value string) gokeepasslib.ValueData {
	return gokeepasslib.ValueData{
		Key: key,
		Value: gokeepasslib.V{
			Content:   value,
			Protected: wrappers.NewBoolWrapper(true),
		},
	}
}

// values builds the KeePass value list. Standard fields come first, then
// custom properties in order; a repeated custom key keeps its first
// position and takes the last value.
func (e *Entry) values() ([]gokeepasslib.ValueData, error) {
	values := []gokeepasslib.ValueData{
		mkValue(KeyTitle, e.Title),
		mkValue(KeyUserName, e.UserName),
		mkProtectedValue(KeyPassword, e.Password),
		mkValue(KeyURL, e.URL),
		mkValue(KeyNotes, e.Notes),
	}

	index := make(map[string]int, len(e.Properties))
	for _, p := range e.Properties {
		if IsReservedKey(p.Key) {
			return nil, &reservedKeyError{key: p.Key}
		}
		v := mkValue(p.Key, p.Value)
		if p.Protected {
			v = mkProtectedValue(p.Key, p.Value)
		}
		if i, ok := index[p.Key]; ok {
			values[i] = v
			continue
		}
		index[p.Key] = len(values)
		values = append(values, v)
	}
	return values, nil
}

type reservedKeyError struct {
	key string
}

func (e *reservedKeyError) Error() string {
	return ErrReservedKey.Error() + ": " + e.key
}

func (e *reservedKeyError) Unwrap() error {
	return ErrReservedKey
}

func joinTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, ",")
}

func setTime(w **wrappers.TimeWrapper, t time.Time) {
	if t.IsZero() {
		return
	}
	if *w == nil {
		*w = &wrappers.TimeWrapper{Time: t}
		return
	}
	(*w).Time = t
}
