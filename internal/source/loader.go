package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/sync/errgroup"

	"campus-advisor/internal/contextutil"
)

// ErrPDFToolNotFound is returned when a PDF is loaded without pdftotext on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Loader reads documents into plain text pages.
type Loader struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
	markdown goldmark.Markdown
	parallel int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCommandRunner replaces the runner used for pdftotext.
func WithCommandRunner(r CommandRunner) LoaderOption {
	return func(l *Loader) {
		l.runner = r
		l.lookPath = func(name string) (string, error) { return name, nil }
	}
}

// WithParallelism bounds how many files LoadAll reads at once.
func WithParallelism(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.parallel = n
		}
	}
}

// NewLoader creates a loader that shells out to pdftotext for PDFs.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		runner:   execRunner{},
		lookPath: exec.LookPath,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
		parallel: 4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads one scanned file.
func (l *Loader) Load(ctx context.Context, f ScannedFile) (Document, error) {
	raw, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", f.RelPath, err)
	}
	sum := sha256.Sum256(raw)
	doc := Document{
		Name: f.RelPath,
		Kind: f.Kind,
		Path: f.AbsPath,
		Hash: hex.EncodeToString(sum[:]),
	}

	switch strings.ToLower(filepath.Ext(f.AbsPath)) {
	case ".pdf":
		out, err := l.pdfText(ctx, f.AbsPath)
		if err != nil {
			return Document{}, fmt.Errorf("failed to extract text from %s: %w", f.RelPath, err)
		}
		doc.Pages = splitPages(string(out))
	case ".md":
		doc.Pages = []string{l.markdownText(raw)}
	default:
		doc.Pages = splitPages(string(raw))
	}
	return doc, nil
}

// LoadAll scans root and loads every document. Files that fail to load are
// returned as failures; the remaining documents keep scan order.
func (l *Loader) LoadAll(ctx context.Context, root string) ([]Document, []Failure, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := Scan(ctx, root)
	if err != nil {
		return nil, nil, err
	}

	docs := make([]Document, len(files))
	errs := make([]error, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallel)
	for i, f := range files {
		g.Go(func() error {
			docs[i], errs[i] = l.Load(gctx, f)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		loaded   []Document
		failures []Failure
	)
	for i, f := range files {
		if errs[i] != nil {
			logger.WarnContext(ctx, "document failed to load", "path", f.RelPath, "error", errs[i])
			failures = append(failures, Failure{Path: f.RelPath, Err: errs[i]})
			continue
		}
		loaded = append(loaded, docs[i])
	}
	logger.InfoContext(ctx, "documents loaded", "root", root, "documents", len(loaded), "failures", len(failures))
	return loaded, failures, nil
}

func (l *Loader) pdfText(ctx context.Context, path string) ([]byte, error) {
	bin, err := l.lookPath("pdftotext")
	if err != nil {
		return nil, ErrPDFToolNotFound
	}
	return l.runner.Run(ctx, bin, "-layout", "-enc", "UTF-8", path, "-")
}

// splitPages splits on form feeds, the page separator pdftotext emits.
func splitPages(s string) []string {
	pages := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\f")
	for len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// markdownText renders markdown as plain text, one line per block and table
// cells separated by wide gaps.
func (l *Loader) markdownText(content []byte) string {
	doc := l.markdown.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock, *ast.ListItem, *extast.TableRow, *extast.TableHeader:
			newline()
		case *extast.TableCell:
			if entering && v.PreviousSibling() != nil {
				b.WriteString("   ")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				newline()
				lines := v.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(content))
				}
				newline()
				return ast.WalkSkipChildren, nil
			}
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(content))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(v.Value)
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
