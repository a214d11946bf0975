package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// getSymbolStyle returns the symbol-highlighting style with fallbacks.
func getSymbolStyle() *chroma.Style {
	candidates := []string{"symbol-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// IsDisabled returns true if colors are disabled via environment
func IsDisabled() bool {
	return os.Getenv("SYMBOLICATE_NO_COLOR") != "" || os.Getenv("NO_COLOR") != ""
}

// FunctionSignature colorizes a demangled function signature using
// Chroma's C++ lexer (the common target language of both Itanium and
// the minimal MSVC decoder), falling back to plain text if the lexer
// or formatter isn't available.
func FunctionSignature(name string) string {
	if IsDisabled() {
		return name
	}

	lexer := lexers.Get("cpp")
	if lexer == nil {
		return name
	}

	style := getSymbolStyle()
	formatter := getTerminalFormatter()

	iterator, err := lexer.Tokenise(nil, name)
	if err != nil {
		return name
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return name
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// Offset formats a module-relative offset in yellow.
func Offset(addr uint64) string {
	if IsDisabled() {
		return fmt.Sprintf("0x%x", addr)
	}
	return fmt.Sprintf("\033[38;2;255;200;0m0x%x\033[0m", addr)
}

// Tag formats a hashtag in light pink
func Tag(tag string) string {
	if IsDisabled() {
		return tag
	}
	return fmt.Sprintf("\033[38;2;255;180;200m%s\033[0m", tag)
}

// FuncName formats a function name in yellow (IDA style labels)
func FuncName(name string) string {
	if IsDisabled() {
		return name
	}
	return fmt.Sprintf("\033[38;2;255;200;0m%s\033[0m", name)
}

// Module formats a module/library name in light blue.
func Module(name string) string {
	if IsDisabled() {
		return name
	}
	return fmt.Sprintf("\033[38;2;135;206;235m%s\033[0m", name)
}

// FileLine formats a "path:line" source location in light gray.
func FileLine(path string, line int) string {
	s := path
	if line > 0 {
		s = fmt.Sprintf("%s:%d", path, line)
	}
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;180;180;180m%s\033[0m", s)
}

// Detail formats detail text in light gray
func Detail(detail string) string {
	if IsDisabled() {
		return detail
	}
	return fmt.Sprintf("\033[38;2;180;180;180m%s\033[0m", detail)
}

// Border formats border characters in dark gray
func Border(s string) string {
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;80;80;80m%s\033[0m", s)
}

// Comment formats comments in white
func Comment(s string) string {
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;255;255;255m%s\033[0m", s)
}

// Header formats header text in blue (IDA style)
func Header(s string) string {
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;86;156;214m%s\033[0m", s)
}

// Error formats error messages in pink
func Error(s string) string {
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;255;128;192m%s\033[0m", s)
}

// String formats string values in pink/magenta
func String(s string) string {
	if IsDisabled() {
		return s
	}
	return fmt.Sprintf("\033[38;2;255;128;192m%s\033[0m", s)
}
