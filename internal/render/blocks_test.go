package render

import (
	"strings"
	"testing"

	"kidsfolio/internal/portfolio"
)

func TestGridLayoutByCount(t *testing.T) {
	cases := map[int]string{
		0: GridUniform,
		1: GridSingle,
		2: GridUniform,
		3: GridTrio,
		4: GridUniform,
		5: GridUniform,
	}
	for count, want := range cases {
		if got := GridLayout(count); got != want {
			t.Errorf("GridLayout(%d) = %q, want %q", count, got, want)
		}
	}
}

func TestImageGridTrioShape(t *testing.T) {
	n := Block(testContext(), portfolio.ImageGrid{ID: "g1", URLs: []string{"a.png", "b.png", "c.png"}}, 0)
	if got := findAll(n, hasClass("frame-large")); len(got) != 1 {
		t.Fatalf("large frames = %d, want 1", len(got))
	}
	stacks := findAll(n, hasClass("bento-stack"))
	if len(stacks) != 1 {
		t.Fatalf("stacks = %d, want 1", len(stacks))
	}
	if got := findAll(stacks[0], hasClass("frame-small")); len(got) != 2 {
		t.Fatalf("small frames = %d, want 2", len(got))
	}
	imgs := findAll(n, tagIs("img"))
	if src, _ := getAttr(imgs[0], "src"); src != "a.png" {
		t.Fatalf("first image = %q", src)
	}
}

func TestImageGridUniform(t *testing.T) {
	for _, urls := range [][]string{nil, {"a", "b"}, {"a", "b", "c", "d"}, {"a", "b", "c", "d", "e"}} {
		n := Block(testContext(), portfolio.ImageGrid{ID: "g", URLs: urls}, 0)
		grids := findAll(n, hasAttr("data-layout"))
		if layout, _ := getAttr(grids[0], "data-layout"); layout != GridUniform {
			t.Fatalf("%d images: layout %q", len(urls), layout)
		}
		if got := findAll(n, hasClass("frame-square")); len(got) != len(urls) {
			t.Fatalf("%d images: frames %d", len(urls), len(got))
		}
	}
}

func TestSectionHeadingAndProjectHighlight(t *testing.T) {
	ctx := testContext()
	nodes := Blocks(ctx, []portfolio.Block{
		portfolio.SectionHeading{ID: "h", Title: "Projects"},
		portfolio.ProjectHighlight{
			ID:    "p",
			Title: "Rover",
			STAR:  portfolio.STAR{Situation: "s-text", Task: "t-text", Action: "a-text", Result: "r-text"},
		},
	})
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}

	if got := findAll(nodes[0], tagIs("h2")); len(got) != 1 || textOf(got[0]) != "Projects" {
		t.Fatalf("heading = %v", got)
	}
	if got := findAll(nodes[0], tagIs("hr")); len(got) != 2 {
		t.Fatalf("rules = %d, want 2", len(got))
	}

	panels := findAll(nodes[1], hasAttr("data-star"))
	if len(panels) != 4 {
		t.Fatalf("panels = %d, want 4", len(panels))
	}
	wantKeys := []string{"situation", "task", "action", "result"}
	wantText := []string{"s-text", "t-text", "a-text", "r-text"}
	for i, p := range panels {
		key, _ := getAttr(p, "data-star")
		if key != wantKeys[i] {
			t.Fatalf("panel %d key = %q, want %q", i, key, wantKeys[i])
		}
		if !strings.Contains(textOf(p), wantText[i]) {
			t.Fatalf("panel %d text = %q", i, textOf(p))
		}
	}
	if got := findAll(nodes[1], hasClass("evidence")); len(got) != 0 {
		t.Fatalf("evidence rendered without urls")
	}
}

func TestProjectHighlightEvidenceGrid(t *testing.T) {
	n := Block(testContext(), portfolio.ProjectHighlight{ID: "p", EvidenceURLs: []string{"x.png", "y.png", "z.png"}}, 0)
	// 成果佐证始终使用统一方格，不受图片数量影响
	if got := findAll(n, hasClass("frame-square")); len(got) != 3 {
		t.Fatalf("evidence frames = %d, want 3", len(got))
	}
	if got := findAll(n, hasClass("bento-stack")); len(got) != 0 {
		t.Fatalf("evidence used trio layout")
	}
}

func TestUnknownBlockRendersNothing(t *testing.T) {
	ctx := testContext()
	if n := Block(ctx, portfolio.UnknownBlock{ID: "u", RawType: "quiz"}, 0); n != nil {
		t.Fatalf("unknown block rendered %q", RenderString(n))
	}
	nodes := Blocks(ctx, []portfolio.Block{
		portfolio.TextBlock{ID: "a", Content: "one"},
		portfolio.UnknownBlock{ID: "u", RawType: "quiz"},
		portfolio.TextBlock{ID: "b", Content: "two"},
	})
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}
}

func TestTimelineEmbedsActivateIndependently(t *testing.T) {
	block := portfolio.TimelineNode{
		ID:    "t1",
		Date:  "2024-05",
		Title: "First robot",
		Media: []portfolio.MediaItem{
			portfolio.ClassifyMedia("https://cdn.example.com/a.png"),
			portfolio.ClassifyMedia(`<iframe src="https://player.example.com/1"></iframe>`),
			portfolio.ClassifyMedia(`<iframe src="https://player.example.com/2"></iframe>`),
		},
	}

	ctx := testContext()
	n := Block(ctx, block, 0)
	placeholders := findAll(n, hasClass("embed-placeholder"))
	if len(placeholders) != 2 {
		t.Fatalf("placeholders = %d, want 2", len(placeholders))
	}
	if got := findAll(n, tagIs("iframe")); len(got) != 0 {
		t.Fatalf("embed rendered before activation")
	}
	if hx, _ := getAttr(placeholders[0], "hx-get"); hx != "/p/amy-chen/blocks/t1/media/1?lang=en" {
		t.Fatalf("hx-get = %q", hx)
	}
	if href, _ := getAttr(placeholders[1], "href"); !strings.Contains(href, "play=t1%3A2") {
		t.Fatalf("fallback href = %q", href)
	}

	ctx.Embeds = map[string]EmbedState{"t1": {2: true}}
	n = Block(ctx, block, 0)
	if got := findAll(n, hasClass("embed-placeholder")); len(got) != 1 {
		t.Fatalf("placeholders after activation = %d, want 1", len(got))
	}
	iframes := findAll(n, tagIs("iframe"))
	if len(iframes) != 1 {
		t.Fatalf("iframes = %d, want 1", len(iframes))
	}
	if src, _ := getAttr(iframes[0], "src"); src != "https://player.example.com/2" {
		t.Fatalf("activated iframe src = %q", src)
	}
	if got := findAll(n, tagIs("img")); len(got) != 1 {
		t.Fatalf("image items = %d, want 1", len(got))
	}
}

func TestTimelineWithoutIDUsesPosition(t *testing.T) {
	block := portfolio.TimelineNode{
		Media: []portfolio.MediaItem{portfolio.ClassifyMedia(`<iframe src="https://player.example.com/1"></iframe>`)},
	}
	ctx := testContext()
	n := Block(ctx, block, 2)
	placeholders := findAll(n, hasClass("embed-placeholder"))
	if len(placeholders) != 1 {
		t.Fatalf("placeholders = %d, want 1", len(placeholders))
	}
	if hx, _ := getAttr(placeholders[0], "hx-get"); hx != "/p/amy-chen/blocks/idx-2/media/0?lang=en" {
		t.Fatalf("hx-get = %q", hx)
	}
	if href, _ := getAttr(placeholders[0], "href"); !strings.Contains(href, "play=idx-2%3A0") {
		t.Fatalf("fallback href = %q", href)
	}

	ctx.Embeds = map[string]EmbedState{"idx-2": {0: true}}
	if got := findAll(Block(ctx, block, 2), tagIs("iframe")); len(got) != 1 {
		t.Fatalf("iframes = %d, want 1", len(got))
	}
}

func TestEmbedFragmentSanitizes(t *testing.T) {
	out := RenderString(EmbedFragment(testContext(), `<iframe src="https://player.example.com/1" onload="alert(1)"></iframe><script>alert(1)</script>`))
	if strings.Contains(out, "script") || strings.Contains(out, "onload") {
		t.Fatalf("unsanitized output: %s", out)
	}
	if !strings.Contains(out, `src="https://player.example.com/1"`) {
		t.Fatalf("iframe dropped: %s", out)
	}
}

func TestVideoBlock(t *testing.T) {
	ctx := testContext()
	embed := Block(ctx, portfolio.VideoBlock{ID: "v1", Source: portfolio.ClassifyMedia(`<iframe src="https://player.example.com/9"></iframe>`)}, 0)
	if got := findAll(embed, tagIs("iframe")); len(got) != 1 {
		t.Fatalf("embed video not rendered directly")
	}
	if got := findAll(embed, hasClass("embed-placeholder")); len(got) != 0 {
		t.Fatalf("video embed is gated")
	}

	native := Block(ctx, portfolio.VideoBlock{ID: "v2", Source: portfolio.ClassifyMedia("https://cdn.example.com/clip.mp4")}, 0)
	videos := findAll(native, tagIs("video"))
	if len(videos) != 1 {
		t.Fatalf("native video count = %d", len(videos))
	}
	if _, ok := getAttr(videos[0], "controls"); !ok {
		t.Fatalf("native video without controls")
	}
}

func TestTextBlockEscapesContent(t *testing.T) {
	out := RenderString(Block(testContext(), portfolio.TextBlock{ID: "x", Content: "line one\n<b>line two</b>"}, 0))
	if !strings.Contains(out, "line one\n&lt;b&gt;line two&lt;/b&gt;") {
		t.Fatalf("content not preserved verbatim: %s", out)
	}
}
