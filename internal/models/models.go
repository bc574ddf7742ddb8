package models

import "time"

// FormatLabels enumerates the six encoding resolutions a video can carry.
// Order matters for stable JSON output and for the storage column mapping.
var FormatLabels = []string{"1080", "720", "480", "360", "240", "144"}

// User is the public shape of an account. Email is only populated when the
// requester is allowed to see it; the password hash never leaves storage.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Pseudo    *string   `json:"pseudo"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoFormats maps each resolution label to the locator of the encoded file,
// nil until the encoding pipeline reports that rendition.
type VideoFormats struct {
	F1080 *string `json:"1080"`
	F720  *string `json:"720"`
	F480  *string `json:"480"`
	F360  *string `json:"360"`
	F240  *string `json:"240"`
	F144  *string `json:"144"`
}

// Get returns the locator stored for a label.
func (f VideoFormats) Get(label string) *string {
	switch label {
	case "1080":
		return f.F1080
	case "720":
		return f.F720
	case "480":
		return f.F480
	case "360":
		return f.F360
	case "240":
		return f.F240
	case "144":
		return f.F144
	}
	return nil
}

// Set stores a locator under a label. Unknown labels are ignored; callers
// validate against FormatLabels first.
func (f *VideoFormats) Set(label string, locator *string) {
	switch label {
	case "1080":
		f.F1080 = locator
	case "720":
		f.F720 = locator
	case "480":
		f.F480 = locator
	case "360":
		f.F360 = locator
	case "240":
		f.F240 = locator
	case "144":
		f.F144 = locator
	}
}

// Video is an owned media record joined with its owner summary.
type Video struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"created_at"`
	Views     int          `json:"views"`
	Enabled   bool         `json:"enabled"`
	Duration  int          `json:"duration"`
	User      User         `json:"user"`
	Formats   VideoFormats `json:"formats"`
}

// Comment is a message left on a video, joined with its author summary.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	VideoID   int64     `json:"video_id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}
