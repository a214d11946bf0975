// Package colorize provides syntax highlighting for demangled symbol
// names and source locations printed by the CLI.
package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

func init() {
	// Register our custom symbol style on package initialization
	_ = SymbolDark
}

// IDA-style theme colors, reused for demangled C++/Rust signatures.
const (
	IDAAddress  = "#808080" // Gray for addresses
	IDAMnemonic = "#FFFFFF" // White for keywords
	IDARegister = "#87CEEB" // Light blue for types/namespaces
	IDANumber   = "#FF80C0" // Light pink for numbers
	IDALabel    = "#FFC800" // Yellow for labels/function names
	IDAComment  = "#FF8000" // Orange for comments
	IDAString   = "#00FF00" // Green for strings
	IDAHexBytes = "#646464" // Dark gray for hex bytes
)

// SymbolDark is a custom style for printing demangled signatures.
var SymbolDark = styles.Register(chroma.MustNewStyle("symbol-dark", chroma.StyleEntries{
	chroma.Text:           "#FFFFFF",    // White default
	chroma.Background:     "bg:#000000", // Pure black background
	chroma.Comment:        "#FF8000",    // Orange comments
	chroma.CommentPreproc: "#FF8000",    // Same for preprocessor comments

	// Keywords and names (C++ lexer)
	chroma.Keyword:       "#FFFFFF", // Keywords in white
	chroma.KeywordPseudo: "#FFFFFF", // Pseudo keywords in white
	chroma.Name:          "#87CEEB", // Generic names (types, namespaces) in cyan
	chroma.NameBuiltin:   "#87CEEB", // Builtin names in cyan
	chroma.NameVariable:  "#87CEEB", // Variables in cyan

	// Numbers - pink like IDA
	chroma.LiteralNumber:        "#FF80C0", // Decimal numbers in pink
	chroma.LiteralNumberHex:     "#FF80C0", // Hex numbers in pink
	chroma.LiteralNumberBin:     "#FF80C0", // Binary numbers in pink
	chroma.LiteralNumberOct:     "#FF80C0", // Octal numbers in pink
	chroma.LiteralNumberInteger: "#FF80C0", // Integer literals in pink
	chroma.LiteralNumberFloat:   "#FF80C0", // Float literals in pink

	// Labels and symbols
	chroma.NameLabel:    "#FFC800", // Labels in yellow
	chroma.NameFunction: "#FFFFFF", // Function names in white

	// Operators and punctuation
	chroma.Operator:    "#FFFFFF", // Operators in white
	chroma.Punctuation: "#FFFFFF", // Punctuation in white

	// Strings
	chroma.String: "#00FF00", // Strings in green
}))
