package megadoc

import "testing"

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Treaty of Paris":      "treaty-of-paris",
		"  leading/trailing  ": "leading-trailing",
		"multi___under--score": "multi-under-score",
		"Ünïcödé Chars":        "n-c-d-chars",
		"":                     "untitled",
		"---":                  "untitled",
	}
	for input, want := range cases {
		if got := Slug(input); got != want {
			t.Errorf("Slug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlug_TruncatesLongInput(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	got := Slug(long)
	if len(got) > maxSlugLen {
		t.Fatalf("Slug() length = %d, want <= %d", len(got), maxSlugLen)
	}
}
