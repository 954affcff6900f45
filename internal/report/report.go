// Package report renders verification run results as Markdown and HTML for
// the CLI and the daemon status page.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/step"
)

var titleCaser = cases.Title(language.English)

const timeRounding = 10 * time.Millisecond

// Markdown renders a run result as a Markdown document.
func Markdown(result *pipeline.RunResult) string {
	var b strings.Builder

	status := "PASSED"
	if !result.Success() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "# Verification Run %s — %s\n\n", shortID(result.RunID), status)
	fmt.Fprintf(&b, "- Repository: `%s`\n", result.Event.Repository)
	fmt.Fprintf(&b, "- Event: %s `%s`\n", result.Event.Kind, result.Event.Ref)
	if result.Event.Commit != "" {
		fmt.Fprintf(&b, "- Commit: `%s`\n", result.Event.Commit)
	}
	fmt.Fprintf(&b, "- Duration: %s\n\n", result.Duration.Round(timeRounding))

	for i := range result.Jobs {
		job := &result.Jobs[i]
		fmt.Fprintf(&b, "## %s — %s\n\n", titleCaser.String(job.Runner), job.Status)
		b.WriteString("| Step | Outcome | Duration |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, rec := range job.Steps {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				titleCaser.String(rec.Step), outcomeCell(rec), rec.Duration.Round(timeRounding))
		}
		b.WriteString("\n")
		if job.Err != nil {
			fmt.Fprintf(&b, "```\n%v\n```\n\n", job.Err)
		}
	}
	return b.String()
}

func outcomeCell(rec step.Record) string {
	if rec.Outcome == step.OutcomeFailure && rec.Error != "" {
		return fmt.Sprintf("%s — %s", rec.Outcome, rec.Error)
	}
	return string(rec.Outcome)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// HTML converts a run result to an HTML fragment for the status page.
func HTML(result *pipeline.RunResult) (string, error) {
	return RenderHTML(Markdown(result))
}

// RenderHTML converts report Markdown into an HTML fragment.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}

// Anchors extracts the heading anchor IDs from a rendered report, used by
// the status page to build per-job navigation.
func Anchors(htmlFragment string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlFragment))
	if err != nil {
		return nil, fmt.Errorf("parse report html: %w", err)
	}

	var anchors []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "h1" || n.Data == "h2") {
			for _, attr := range n.Attr {
				if attr.Key == "id" {
					anchors = append(anchors, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return anchors, nil
}
