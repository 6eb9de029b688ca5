package markdown

import (
	"strings"
	"testing"
)

func TestRenderWithFrontmatter(t *testing.T) {
	source := "---\nmood: 4\nenergy: 2\n---\n# Today\n\nShipped the *scheduler*.\n"

	var meta struct {
		Mood   *int `yaml:"mood"`
		Energy *int `yaml:"energy"`
	}
	html, err := NewParser().RenderWithFrontmatter([]byte(source), &meta)
	if err != nil {
		t.Fatalf("RenderWithFrontmatter: %v", err)
	}

	if meta.Mood == nil || *meta.Mood != 4 {
		t.Errorf("mood = %v, want 4", meta.Mood)
	}
	if meta.Energy == nil || *meta.Energy != 2 {
		t.Errorf("energy = %v, want 2", meta.Energy)
	}
	out := string(html)
	if !strings.Contains(out, "<em>scheduler</em>") {
		t.Errorf("html missing emphasis: %s", out)
	}
	if strings.Contains(out, "mood") {
		t.Errorf("front matter leaked into html: %s", out)
	}
}

func TestRenderWithFrontmatter_NoFrontmatter(t *testing.T) {
	var meta struct {
		Mood *int `yaml:"mood"`
	}
	html, err := NewParser().RenderWithFrontmatter([]byte("just text"), &meta)
	if err != nil {
		t.Fatalf("RenderWithFrontmatter: %v", err)
	}
	if meta.Mood != nil {
		t.Errorf("mood = %d, want nil", *meta.Mood)
	}
	if !strings.Contains(string(html), "just text") {
		t.Errorf("html = %s", html)
	}
}

func TestRender_DropsRawHTML(t *testing.T) {
	html, err := NewParser().Render([]byte("hello <script>alert(1)</script>"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Errorf("raw html passed through: %s", html)
	}
}
