package pereval

import (
	"strings"
	"testing"
)

func validRequest() SubmitRequest {
	return SubmitRequest{
		BeautyTitle: "пер. ",
		Title:       "Pkhiya",
		OtherTitles: "Triev",
		Connect:     "",
		AddTime:     "2021-09-22 13:18:13",
		User: UserRequest{
			Email: "qwerty@mail.ru",
			Fam:   "Pashov",
			Name:  "Petr",
			Otc:   "Andreevich",
			Phone: "+7 555 55 55",
		},
		Coords: CoordsRequest{Latitude: "45.3842", Longitude: "7.1525", Height: "1200"},
		Level:  LevelRequest{Summer: "1A", Autumn: "1A"},
		Images: []ImageRequest{
			{Data: "aGVsbG8=", Title: "Седловина"},
			{Data: "d29ybGQ=", Title: "Подъём"},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	for _, addTime := range []string{
		"2021-09-22T13:18:13Z",
		"2021-09-22T13:18:13+03:00",
		"2021-09-22T13:18:13",
		"2021-09-22",
	} {
		iso := validRequest()
		iso.AddTime = addTime
		if err := iso.Validate(); err != nil {
			t.Fatalf("add_time %q rejected: %v", addTime, err)
		}
	}

	noOtc := validRequest()
	noOtc.User.Otc = ""
	if err := noOtc.Validate(); err != nil {
		t.Fatalf("missing patronymic rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SubmitRequest)
		want   string
	}{
		{"empty beauty title", func(r *SubmitRequest) { r.BeautyTitle = "  " }, "beauty_title"},
		{"empty title", func(r *SubmitRequest) { r.Title = "" }, "title"},
		{"missing add_time", func(r *SubmitRequest) { r.AddTime = "" }, "add_time"},
		{"unparsable add_time", func(r *SubmitRequest) { r.AddTime = "yesterday" }, "add_time"},
		{"bad email", func(r *SubmitRequest) { r.User.Email = "not-an-email" }, "email"},
		{"display-name email", func(r *SubmitRequest) { r.User.Email = "Petr <qwerty@mail.ru>" }, "email"},
		{"empty fam", func(r *SubmitRequest) { r.User.Fam = " " }, "fam"},
		{"empty name", func(r *SubmitRequest) { r.User.Name = "" }, "name"},
		{"empty phone", func(r *SubmitRequest) { r.User.Phone = "  " }, "phone"},
		{"bad latitude", func(r *SubmitRequest) { r.Coords.Latitude = "north" }, "latitude"},
		{"bad longitude", func(r *SubmitRequest) { r.Coords.Longitude = "" }, "longitude"},
		{"fractional height", func(r *SubmitRequest) { r.Coords.Height = "12.5" }, "height"},
		{"no images", func(r *SubmitRequest) { r.Images = nil }, "images"},
		{"untitled image", func(r *SubmitRequest) { r.Images[0].Title = " " }, "title"},
		{"empty image data", func(r *SubmitRequest) { r.Images[1].Data = "" }, "data"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("message %q does not name %q", err.Error(), tc.want)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	u := UserRequest{Fam: " Pashov ", Name: "Petr", Otc: "Andreevich"}
	if got := u.FullName(); got != "Pashov Petr Andreevich" {
		t.Fatalf("unexpected full name: %q", got)
	}
	u.Otc = "  "
	if got := u.FullName(); got != "Pashov Petr" {
		t.Fatalf("unexpected full name without patronymic: %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  QWErty@Mail.RU "); got != "qwerty@mail.ru" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"new", "pending", "accepted", "rejected"} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("known status rejected: %v", err)
		}
	}
	if _, err := ParseStatus("draft"); err == nil {
		t.Fatalf("expected unknown status error")
	}
}
