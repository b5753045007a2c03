package domain

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// ItemPreference expresses how much the owner wants an item.
type ItemPreference string

const (
	// PreferenceLowest marks an item as barely wanted.
	PreferenceLowest ItemPreference = "lowest"
	// PreferenceLow marks an item as mildly wanted.
	PreferenceLow ItemPreference = "low"
	// PreferenceNormal is the default preference.
	PreferenceNormal ItemPreference = "normal"
	// PreferenceHigh marks an item as strongly wanted.
	PreferenceHigh ItemPreference = "high"
	// PreferenceHighest marks an item as most wanted.
	PreferenceHighest ItemPreference = "highest"
)

// ParseItemPreference maps raw input to an ItemPreference.
func ParseItemPreference(raw string) (ItemPreference, bool) {
	switch ItemPreference(strings.ToLower(strings.TrimSpace(raw))) {
	case PreferenceLowest:
		return PreferenceLowest, true
	case PreferenceLow:
		return PreferenceLow, true
	case PreferenceNormal, "":
		return PreferenceNormal, true
	case PreferenceHigh:
		return PreferenceHigh, true
	case PreferenceHighest:
		return PreferenceHighest, true
	default:
		return PreferenceNormal, false
	}
}

// Item belongs to exactly one list for its lifetime; moving an item to
// another list is an explicit operation that re-validates ownership of
// the target list.
type Item struct {
	ID         ID
	ListID     ID
	Title      string
	Text       string
	Preference ItemPreference
	URL        string
	ImageURL   string
	// LocalImageURL points at the copy fetched into our own storage.
	LocalImageURL string
	Archived      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ItemValues is the draft of item fields supplied by the presentation
// layer for create and update operations.
type ItemValues struct {
	Title      string
	Text       string
	Preference string
	URL        *string
	ImageURL   *string
}

// Validate checks the draft against item constraints.
func (v ItemValues) Validate() error {
	errs := ValidationError{}
	title := strings.TrimSpace(v.Title)
	if title == "" {
		errs["title"] = "must not be empty"
	} else if utf8.RuneCountInString(title) > 100 {
		errs["title"] = "must not exceed 100 characters"
	}
	if utf8.RuneCountInString(v.Text) > 2000 {
		errs["text"] = "must not exceed 2000 characters"
	}
	if _, ok := ParseItemPreference(v.Preference); !ok {
		errs["preference"] = "must be one of lowest, low, normal, high, highest"
	}
	if v.URL != nil {
		if err := validateHTTPURL(*v.URL); err != nil {
			errs["url"] = "must be a valid http(s) URL"
		}
	}
	if v.ImageURL != nil {
		if err := validateHTTPURL(*v.ImageURL); err != nil {
			errs["imageURL"] = "must be a valid http(s) URL"
		}
	}
	return errs.orNil()
}

func validateHTTPURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return url.InvalidHostError(parsed.Scheme)
	}
	if parsed.Host == "" {
		return url.InvalidHostError("")
	}
	return nil
}
