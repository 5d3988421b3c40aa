package export

import (
	"fmt"
	"os"
	"strings"

	"chemhits/domain/bioactivity"
	"chemhits/domain/core"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownReport renders the summary as a markdown document: a count per
// hit strength followed by the full table
func MarkdownReport(target core.TargetID, table *bioactivity.ClassifiedTable) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Hit summary: %s\n\n", target)

	counts := table.CountByStrength()
	fmt.Fprintf(&b, "%d compounds called as hits.\n\n", table.Len())
	b.WriteString("| hit_strength | compounds |\n|---|---|\n")
	for _, s := range []bioactivity.HitStrength{
		bioactivity.StrengthStrong,
		bioactivity.StrengthWeak,
		bioactivity.StrengthAmbiguous,
		bioactivity.StrengthNonHit,
	} {
		fmt.Fprintf(&b, "| %s | %d |\n", s, counts[s])
	}

	b.WriteString("\n## Compounds\n\n")
	records := Records(table)
	b.WriteString("| " + strings.Join(records[0], " | ") + " |\n")
	b.WriteString(strings.Repeat("|---", len(records[0])) + "|\n")
	for _, row := range records[1:] {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return []byte(b.String())
}

// HTMLReport renders the markdown report into a standalone HTML page
func HTMLReport(target core.TargetID, table *bioactivity.ClassifiedTable) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(MarkdownReport(target, table))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Hit summary: %s", target),
	})
	return markdown.Render(doc, renderer)
}

// MarkdownWriter writes hit_summary.md
type MarkdownWriter struct{}

func (MarkdownWriter) Format() string { return FormatMarkdown }

func (MarkdownWriter) Write(dir string, target core.TargetID, table *bioactivity.ClassifiedTable) (string, error) {
	return writeBytes(dir, FormatMarkdown, MarkdownReport(target, table))
}

// HTMLWriter writes hit_summary.html
type HTMLWriter struct{}

func (HTMLWriter) Format() string { return FormatHTML }

func (HTMLWriter) Write(dir string, target core.TargetID, table *bioactivity.ClassifiedTable) (string, error) {
	return writeBytes(dir, FormatHTML, HTMLReport(target, table))
}

func writeBytes(dir, ext string, data []byte) (string, error) {
	path, err := outputPath(dir, ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
