package pereval

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a pass record. New records are editable
// by their submitter; every other state freezes the record.
type Status string

const (
	StatusNew      Status = "new"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ParseStatus rejects unknown values coming back from the store.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusPending, StatusAccepted, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown moderation status %q", s)
}

const addTimeLayout = "2006-01-02 15:04:05"

// Accepted timestamp forms, tried in order: RFC 3339, offset-less ISO,
// the plain layout the mobile clients send, and a bare date.
var addTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	addTimeLayout,
	"2006-01-02",
}

func parseAddTime(s string) (time.Time, error) {
	for _, layout := range addTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newValidationError("invalid add_time, expected 'YYYY-MM-DD HH:MM:SS'")
}

type SubmitRequest struct {
	BeautyTitle string         `json:"beauty_title"`
	Title       string         `json:"title"`
	OtherTitles string         `json:"other_titles"`
	Connect     string         `json:"connect"`
	AddTime     string         `json:"add_time"`
	User        UserRequest    `json:"user"`
	Coords      CoordsRequest  `json:"coords"`
	Level       LevelRequest   `json:"level"`
	Images      []ImageRequest `json:"images"`
}

type UserRequest struct {
	Email string `json:"email"`
	Fam   string `json:"fam"`
	Name  string `json:"name"`
	Otc   string `json:"otc"`
	Phone string `json:"phone"`
}

// FullName joins family name, given name and, when present, patronymic.
func (u UserRequest) FullName() string {
	parts := []string{strings.TrimSpace(u.Fam), strings.TrimSpace(u.Name)}
	if otc := strings.TrimSpace(u.Otc); otc != "" {
		parts = append(parts, otc)
	}
	return strings.Join(parts, " ")
}

// Coordinates arrive as strings, the way the mobile clients send them.
type CoordsRequest struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Height    string `json:"height"`
}

type LevelRequest struct {
	Winter string `json:"winter"`
	Summer string `json:"summer"`
	Autumn string `json:"autumn"`
	Spring string `json:"spring"`
}

type ImageRequest struct {
	Data  string `json:"data"`
	Title string `json:"title"`
}

// NormalizeEmail is the lookup key for submitters.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Record is a pass record with all linked entities loaded.
type Record struct {
	ID            int64     `json:"id"`
	BeautyTitle   string    `json:"beauty_title"`
	Title         string    `json:"title"`
	OtherTitles   string    `json:"other_titles"`
	Connect       string    `json:"connect"`
	AddTime       time.Time `json:"add_time"`
	Status        Status    `json:"status"`
	ModeratorNote string    `json:"moderator_note"`
	User          Submitter `json:"user"`
	Coords        Coords    `json:"coords"`
	Level         Level     `json:"level"`
	Images        []Image   `json:"images"`
}

type Submitter struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type Coords struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Height    int     `json:"height"`
}

type Level struct {
	ID     int64  `json:"id"`
	Winter string `json:"winter"`
	Summer string `json:"summer"`
	Autumn string `json:"autumn"`
	Spring string `json:"spring"`
}

type Image struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Data  []byte `json:"data"`
}

// RecordResponse is the external representation: images re-encoded to
// base64, status as its string name, add_time in the fixed layout.
type RecordResponse struct {
	ID            int64           `json:"id"`
	BeautyTitle   string          `json:"beauty_title"`
	Title         string          `json:"title"`
	OtherTitles   string          `json:"other_titles"`
	Connect       string          `json:"connect"`
	AddTime       string          `json:"add_time"`
	Status        string          `json:"status"`
	ModeratorNote string          `json:"moderator_note"`
	User          UserResponse    `json:"user"`
	Coords        CoordsResponse  `json:"coords"`
	Level         LevelRequest    `json:"level"`
	Images        []ImageResponse `json:"images"`
}

type UserResponse struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type CoordsResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Height    int     `json:"height"`
}

type ImageResponse struct {
	Data  string `json:"data"`
	Title string `json:"title"`
}

func (r Record) Response() RecordResponse {
	images := make([]ImageResponse, 0, len(r.Images))
	for _, img := range r.Images {
		images = append(images, ImageResponse{
			Data:  base64.StdEncoding.EncodeToString(img.Data),
			Title: img.Title,
		})
	}
	return RecordResponse{
		ID:            r.ID,
		BeautyTitle:   r.BeautyTitle,
		Title:         r.Title,
		OtherTitles:   r.OtherTitles,
		Connect:       r.Connect,
		AddTime:       r.AddTime.Format(addTimeLayout),
		Status:        string(r.Status),
		ModeratorNote: r.ModeratorNote,
		User: UserResponse{
			Email:    r.User.Email,
			FullName: r.User.FullName,
			Phone:    r.User.Phone,
		},
		Coords: CoordsResponse{
			Latitude:  r.Coords.Latitude,
			Longitude: r.Coords.Longitude,
			Height:    r.Coords.Height,
		},
		Level: LevelRequest{
			Winter: r.Level.Winter,
			Summer: r.Level.Summer,
			Autumn: r.Level.Autumn,
			Spring: r.Level.Spring,
		},
		Images: images,
	}
}
