package content

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Spaces   everywhere  ", "spaces-everywhere"},
		{"Crème Brûlée Recipe", "creme-brulee-recipe"},
		{"Go 1.26 — What's New?", "go-1-26-what-s-new"},
		{"UPPER case", "upper-case"},
		{"---", ""},
		{"", ""},
		{"日本語タイトル", ""},
		{"mix 日本語 words", "mix-words"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
