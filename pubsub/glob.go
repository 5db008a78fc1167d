/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package pubsub

// matchGlob implements spec.md §4.F's glob matcher: recursion-free
// backtracking supporting `?`, `*`, `[set]`/`[^set]` (with `-` ranges and
// `]` allowed as the first class member), and `\` escapes. On a mismatch
// after a `*` has been seen, it retries one character later instead of
// recursing, the same "remember the last star" trick the original C
// matcher uses to stay iterative.
func matchGlob(pattern, name string) bool {
	p, n := 0, 0
	starP, starN := -1, -1

	for n < len(name) {
		if p < len(pattern) {
			switch pattern[p] {
			case '*':
				starP = p
				starN = n
				p++
				continue
			case '?':
				p++
				n++
				continue
			case '[':
				end, ok := matchClass(pattern, p, name[n])
				if ok {
					p = end
					n++
					continue
				}
			case '\\':
				if p+1 < len(pattern) && pattern[p+1] == name[n] {
					p += 2
					n++
					continue
				}
			default:
				if pattern[p] == name[n] {
					p++
					n++
					continue
				}
			}
		}

		if starP >= 0 {
			starN++
			n = starN
			p = starP + 1
			continue
		}
		return false
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass parses the `[...]` starting at pattern[p] ('[' itself) and
// reports whether c is a member, along with the index just past the
// closing `]`. ok is false (with end==p, i.e. no progress) if the class
// is unterminated, which the caller treats as a literal mismatch.
func matchClass(pattern string, p int, c byte) (end int, ok bool) {
	i := p + 1
	negate := false
	if i < len(pattern) && (pattern[i] == '^' || pattern[i] == '!') {
		negate = true
		i++
	}

	matched := false
	first := true
	for i < len(pattern) && (pattern[i] != ']' || first) {
		first = false
		lo := pattern[i]
		i++
		if i+1 < len(pattern) && pattern[i] == '-' && pattern[i+1] != ']' {
			hi := pattern[i+1]
			i += 2
			if lo <= c && c <= hi {
				matched = true
			}
			continue
		}
		if lo == c {
			matched = true
		}
	}
	if i >= len(pattern) {
		return p, false
	}
	i++ // consume ']'
	if negate {
		matched = !matched
	}
	return i, matched
}
