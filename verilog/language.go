// Package verilog reads the port lists of the modules in a structural
// Verilog file. Module bodies are skipped statement by statement.
package verilog

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

type file struct {
	Modules []*module `@@*`
}

type module struct {
	Name  string      `"module" @Ident`
	Ports []*portDecl `( "(" ( @@ ( "," @@ )* )? ")" )? ";"`
	Items []*item     `@@* "endmodule"`
}

type portDecl struct {
	Dir   string `@( "input" | "output" | "inout" )?`
	Net   bool   `@( "wire" | "reg" )?`
	Range *span  `@@?`
	Name  string `@Ident`
}

type span struct {
	MSB int `"[" @Number`
	LSB int `":" @Number "]"`
}

type item struct {
	Decl  *decl    `  @@`
	Other []string `| ( @~( ";" | "endmodule" ) )+ ";"`
}

type decl struct {
	Dir   string   `@( "input" | "output" | "inout" )`
	Net   bool     `@( "wire" | "reg" )?`
	Range *span    `@@?`
	Names []string `@Ident ( "," @Ident )* ";"`
}

var verilogLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|(?s:/\*.*?\*/)`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `\b(?:module|endmodule|input|output|inout|wire|reg)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
	{Name: "Number", Pattern: `[0-9]+(?:'[sS]?[bodhBODH][0-9a-fA-FxXzZ_]+)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Punct", Pattern: `[-+*/%&|^~!<>=?:;,.(){}\[\]#@']`},
})

var verilogParser = participle.MustBuild[file](
	participle.Lexer(verilogLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2))

// Parse reads every module declared in r.
func Parse(filename string, r io.Reader) ([]Module, error) {
	f, err := verilogParser.Parse(filename, r)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse verilog")
	}
	modules := make([]Module, 0, len(f.Modules))
	for _, m := range f.Modules {
		mod, err := m.resolve()
		if err != nil {
			return nil, errors.Wrapf(err, "module %s", m.Name)
		}
		modules = append(modules, mod)
	}
	return modules, nil
}

func ParseString(filename, src string) ([]Module, error) {
	return Parse(filename, strings.NewReader(src))
}

func ParseFile(path string) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	return Parse(path, f)
}
