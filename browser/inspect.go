package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Control is one interactive element found in a page snapshot.
type Control struct {
	Tag       string
	AriaLabel string
	Role      string
	State     string
	TestID    string
	Text      string
}

func (c Control) String() string {
	var b strings.Builder
	b.WriteString("<" + c.Tag)
	for _, kv := range [][2]string{
		{"aria-label", c.AriaLabel},
		{"role", c.Role},
		{"data-state", c.State},
		{"data-testid", c.TestID},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, " %s=%q", kv[0], kv[1])
		}
	}
	b.WriteString(">")
	if c.Text != "" {
		b.WriteString(" " + c.Text)
	}
	return b.String()
}

// Report lists the controls the submission steps depend on.
type Report struct {
	ModeToggles   []Control
	Inputs        []Control
	FileInputs    []Control
	UploadChips   []Control
	SubmitButtons []Control
}

// Inspect parses a page snapshot and collects candidate controls. It is used
// to find new selectors when the page markup changes.
func Inspect(html string) (*Report, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	collect := func(sel string) []Control {
		var out []Control
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			out = append(out, controlOf(s))
		})
		return out
	}
	return &Report{
		ModeToggles:   collect(`button[role="radio"]`),
		Inputs:        collect(`[contenteditable="true"], textarea`),
		FileInputs:    collect(`input[type="file"]`),
		UploadChips:   collect(`button[data-testid="remove-uploaded-file"], img[src^="blob:"], div[class*="preview"], button[aria-label*="Remove"]`),
		SubmitButtons: collect(`button[aria-label="Submit"], button[type="submit"]`),
	}, nil
}

func controlOf(s *goquery.Selection) Control {
	attr := func(name string) string {
		v, _ := s.Attr(name)
		return v
	}
	text := strings.Join(strings.Fields(s.Text()), " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:60]) + "..."
	}
	return Control{
		Tag:       goquery.NodeName(s),
		AriaLabel: attr("aria-label"),
		Role:      attr("role"),
		State:     attr("data-state"),
		TestID:    attr("data-testid"),
		Text:      text,
	}
}

// String renders the report as plain text sections.
func (r *Report) String() string {
	var b strings.Builder
	section := func(title string, cs []Control) {
		fmt.Fprintf(&b, "%s (%d)\n", title, len(cs))
		for _, c := range cs {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	section("mode toggles", r.ModeToggles)
	section("message inputs", r.Inputs)
	section("file inputs", r.FileInputs)
	section("upload indicators", r.UploadChips)
	section("submit buttons", r.SubmitButtons)
	return b.String()
}
