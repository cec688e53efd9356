package variables

import "strings"

// Format substitutes `[Name]` references in template with the named
// variable's formatted value, per §4.1:
//   - `[\[]` and `[\]]` yield literal brackets
//   - `[]` yields the empty string
//   - an unterminated `[` is copied verbatim
//   - names are case-sensitive; undefined names format to empty
//   - non-literal values are formatted fixpoint-once (one additional pass
//     over the substituted value, not recursively to a fixpoint)
func (s *Store) Format(template string) (string, error) {
	out, err := s.formatOnce(template, 0)
	if err != nil {
		return "", err
	}
	return out, nil
}

// maxFormatDepth bounds the "one additional pass" re-expansion of a
// non-literal variable's value: depth 0 is the caller's template, depth
// 1 is the single extra pass over a substituted value. Without a bound,
// a self-referencing variable (A's value containing "[A]") would recurse
// through formatOnce without ever terminating.
const maxFormatDepth = 1

func (s *Store) formatOnce(template string, depth int) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(template) {
		c := template[i]
		if c != '[' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(template[i+1:], ']')
		if end == -1 {
			// Unterminated '[' copied verbatim.
			b.WriteString(template[i:])
			break
		}
		name := template[i+1 : i+1+end]
		i = i + 1 + end + 1

		switch name {
		case "":
			// `[]` yields empty string.
		case "\\[":
			b.WriteByte('[')
		case "\\]":
			b.WriteByte(']')
		default:
			v := s.GetVariant(name)
			val := v.FormatString()
			if !s.IsLiteral(name) && strings.Contains(val, "[") && depth < maxFormatDepth {
				reformatted, err := s.formatOnce(val, depth+1)
				if err != nil {
					return "", err
				}
				val = reformatted
			}
			b.WriteString(val)
		}
	}
	return b.String(), nil
}

// Escape produces a template string that formats back to literal s: every
// '[' and ']' is escaped to `[\[]`/`[\]]` so that Format(Escape(s)) == s for
// any s containing no unescaped brackets (§8 property 7).
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '[':
			b.WriteString(`[\[]`)
		case ']':
			b.WriteString(`[\]]`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
