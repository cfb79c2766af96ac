package markdown

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindESM is the node kind of an MDX import/export block.
var KindESM = ast.NewNodeKind("ESM")

// ESM is a top-level MDX `import`/`export` block. It runs in the compiled
// component, so a preview keeps it in the tree but renders nothing.
type ESM struct {
	ast.BaseBlock
}

func (n *ESM) Kind() ast.NodeKind { return KindESM }

func (n *ESM) IsRaw() bool { return true }

func (n *ESM) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mdxExtension struct{}

// MDX enables the MDX dialect: ESM blocks are parsed out of the document.
// JSX elements are already raw HTML to goldmark and follow the raw HTML mode.
var MDX goldmark.Extender = &mdxExtension{}

func (e *mdxExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&esmParser{}, 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&esmRenderer{}, 500),
	))
}

// Only statement shapes open an ESM block, so prose such as "import the
// data from the CSV file" stays a paragraph.
var (
	importRe = regexp.MustCompile(`^import\s*(?:['"]|\{|\*\s*as\s|type\s|[A-Za-z_$][\w$]*\s*(?:,|from\s*['"]))`)
	exportRe = regexp.MustCompile(`^export\s*(?:\{|\*|(?:const|let|var|function|class|default|async\s+function)\b)`)
)

func isESM(line []byte) bool {
	return importRe.Match(line) || exportRe.Match(line)
}

type esmParser struct{}

func (b *esmParser) Trigger() []byte {
	return []byte{'i', 'e'}
}

func (b *esmParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	if parent.Kind() != ast.KindDocument {
		return nil, parser.NoChildren
	}
	line, segment := reader.PeekLine()
	if !isESM(line) {
		return nil, parser.NoChildren
	}
	node := &ESM{}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (b *esmParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (b *esmParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *esmParser) CanInterruptParagraph() bool { return false }

func (b *esmParser) CanAcceptIndentedLine() bool { return false }

type esmRenderer struct{}

func (r *esmRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindESM, func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		return ast.WalkSkipChildren, nil
	})
}
