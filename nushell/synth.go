package nushell

import (
	"fmt"
	"strings"
)

// ContextName is the identifier synthesized wrappers bind the test context
// to. Test and hook functions receive it as pipeline input.
const ContextName = "context"

// EmptyContext returns the literal for a context with no entries.
func EmptyContext() string {
	return "{}"
}

// ContextBinding returns the statement that binds the context for one test
// invocation. contextLiteral is the module-wide context as literal source
// text, typically the serialized output of a before-all hook or
// EmptyContext. When a before-each function is present its output is merged
// on top, so per-test entries override module-wide ones.
func ContextBinding(contextLiteral, beforeEachFn string) string {
	if beforeEachFn == "" {
		return fmt.Sprintf("let %s = %s", ContextName, contextLiteral)
	}
	return fmt.Sprintf("let %s = (%s | merge (%s))", ContextName, contextLiteral, beforeEachFn)
}

// Teardown returns the statement invoking the after-each function with the
// bound context, or an empty string when the module has none.
func Teardown(afterEachFn string) string {
	if afterEachFn == "" {
		return ""
	}
	return fmt.Sprintf("$%s | %s", ContextName, afterEachFn)
}

// WrapperSource synthesizes the disposable wrapper function for one test
// invocation. The wrapper binds the context, pipes it into the target
// function, and guarantees the teardown statement runs whether or not the
// target throws. A thrown error is re-raised after teardown so the process
// still exits nonzero.
func WrapperSource(wrapperName, binding, teardown, target string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export def %s [] {\n", wrapperName)
	writeIndented(&b, binding, 1)
	b.WriteString("    try {\n")
	writeIndented(&b, fmt.Sprintf("$%s | %s", ContextName, target), 2)
	writeIndented(&b, teardown, 2)
	b.WriteString("    } catch { |err|\n")
	writeIndented(&b, teardown, 2)
	writeIndented(&b, "$err.raw", 2)
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

// writeIndented writes each line of code at the given indent depth. Empty
// code contributes nothing, so optional statements collapse cleanly.
func writeIndented(b *strings.Builder, code string, depth int) {
	if code == "" {
		return
	}
	prefix := strings.Repeat("    ", depth)
	for _, line := range strings.Split(code, "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
}
