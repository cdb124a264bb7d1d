package markdown

import "testing"

func TestRenderParagraph(t *testing.T) {
	got := Render("Important batman information")
	want := "<p>Important batman information</p>\n"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderHeading(t *testing.T) {
	got := Render("## Foo bar")
	want := "<h2>Foo bar</h2>\n"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestStrip(t *testing.T) {
	got := Strip("## Heading\n\nSome *emphasised* text")
	want := "Heading Some emphasised text"
	if got != want {
		t.Fatalf("Strip = %q, want %q", got, want)
	}
}

func TestStripEmpty(t *testing.T) {
	if got := Strip(""); got != "" {
		t.Fatalf("Strip(\"\") = %q", got)
	}
}

func TestExcerptFirstParagraph(t *testing.T) {
	got := Excerpt("First *paragraph* here.\n\nSecond paragraph.")
	want := "First paragraph here."
	if got != want {
		t.Fatalf("Excerpt = %q, want %q", got, want)
	}
}

func TestExcerptSingleParagraph(t *testing.T) {
	got := Excerpt("Only one paragraph.")
	if got != "Only one paragraph." {
		t.Fatalf("Excerpt = %q", got)
	}
}
