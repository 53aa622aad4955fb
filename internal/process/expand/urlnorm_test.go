package expand

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tracking params",
			in:   "https://example.com/story?utm_source=x&utm_medium=feed&id=42",
			want: "https://example.com/story?id=42",
		},
		{
			name: "strips www and lowercases host",
			in:   "HTTPS://WWW.Example.COM/Story",
			want: "https://example.com/Story",
		},
		{
			name: "strips trailing slash",
			in:   "https://example.com/story/",
			want: "https://example.com/story",
		},
		{
			name: "root path keeps slash",
			in:   "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "bare host gains root slash",
			in:   "https://example.com",
			want: "https://example.com/",
		},
		{
			name: "strips fbclid and ref case-insensitively",
			in:   "https://example.com/a?FBCLID=abc&Ref=tw&q=news",
			want: "https://example.com/a?q=news",
		},
		{
			name: "drops fragment",
			in:   "https://example.com/a#section",
			want: "https://example.com/a",
		},
		{
			name: "preserves meaningful query",
			in:   "https://example.com/search?q=gpt-5&page=2",
			want: "https://example.com/search?page=2&q=gpt-5",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURL(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.example.com/story/?utm_source=x",
		"HTTP://News.Site/a/b?ref=home&x=1",
		"https://example.com/",
	}

	for _, in := range inputs {
		once := NormalizeURL(in)
		twice := NormalizeURL(once)

		if once != twice {
			t.Errorf("NormalizeURL not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestStoryIDStableAcrossVariants(t *testing.T) {
	variants := []string{
		"https://www.example.com/story?utm_source=x",
		"https://example.com/story",
		"HTTPS://example.com/story/",
	}

	first := StoryID(variants[0], "")
	if len(first) != storyIDLen {
		t.Fatalf("StoryID length = %d, want %d", len(first), storyIDLen)
	}

	for _, v := range variants[1:] {
		if got := StoryID(v, ""); got != first {
			t.Errorf("StoryID(%q) = %q, want %q", v, got, first)
		}
	}

	root := StoryID("https://example.com/", "")
	if got := StoryID("https://example.com", ""); got != root {
		t.Errorf("StoryID root variants differ: %q vs %q", got, root)
	}
}

func TestStoryIDTitleFallback(t *testing.T) {
	a := StoryID("", "OpenAI releases GPT-5")
	b := StoryID("", "  OpenAI releases GPT-5  ")

	if a == "" || a != b {
		t.Errorf("title-based StoryID not stable: %q vs %q", a, b)
	}

	if StoryID("", "") != "" {
		t.Error("StoryID with no url and no title should be empty")
	}
}
