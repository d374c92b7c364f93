package directive

import "strings"

// Handler produces the replacement text of an invocation.
type Handler func(Invocation) (string, error)

// Replace substitutes every directive in text with the output of fn. Output
// of block directives is separated from the surrounding text by blank lines.
// Replacement text is not scanned again.
func Replace(text string, fn Handler) (string, error) {
	sc := NewScanner(text)
	var b strings.Builder
	last := 0
	for {
		inv, ok, err := sc.Next()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		b.WriteString(text[last:inv.Start])
		out, err := fn(inv)
		if err != nil {
			return "", err
		}
		if inv.Spec().Block {
			padBefore(&b)
			b.WriteString(strings.Trim(out, "\n"))
			padAfter(&b, text[inv.End:])
		} else {
			b.WriteString(out)
		}
		last = inv.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// padBefore makes the builder end with an empty line unless it is empty.
func padBefore(b *strings.Builder) {
	s := b.String()
	if strings.TrimSpace(s) == "" {
		return
	}
	for n := trailingNewlines(s); n < 2; n++ {
		b.WriteByte('\n')
	}
}

// padAfter writes enough newlines that rest starts after an empty line.
func padAfter(b *strings.Builder, rest string) {
	if strings.TrimSpace(rest) == "" {
		if !strings.HasSuffix(b.String(), "\n") && rest == "" {
			b.WriteByte('\n')
		}
		return
	}
	for n := leadingNewlines(rest); n < 2; n++ {
		b.WriteByte('\n')
	}
}

func trailingNewlines(s string) int {
	s = strings.TrimRight(s, " \t")
	n := 0
	for n < len(s) && s[len(s)-1-n] == '\n' {
		n++
	}
	return n
}

func leadingNewlines(s string) int {
	s = strings.TrimLeft(s, " \t")
	n := 0
	for n < len(s) && s[n] == '\n' {
		n++
	}
	return n
}
