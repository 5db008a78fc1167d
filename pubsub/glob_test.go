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

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("matchGlob", func() {
	DescribeTable("patterns",
		func(pattern, name string, want bool) {
			Expect(matchGlob(pattern, name)).To(Equal(want))
		},
		Entry("plain equality", "news", "news", true),
		Entry("plain mismatch", "news", "newsx", false),
		Entry("star matches everything", "news.*", "news.sports", true),
		Entry("star matches empty", "news.*", "news.", true),
		Entry("star requires prefix", "news.*", "sports.news", false),
		Entry("question mark matches one char", "news.?", "news.1", true),
		Entry("question mark rejects two chars", "news.?", "news.12", false),
		Entry("inclusive range class", "log[0-9]", "log5", true),
		Entry("range class rejects out of range", "log[0-9]", "logx", false),
		Entry("negated class", "log[^0-9]", "logx", true),
		Entry("negated class rejects member", "log[^0-9]", "log5", false),
		Entry("escaped star is literal", `news\*x`, "news*x", true),
		Entry("escaped star rejects glob behavior", `news\*x`, "newsABCx", false),
		Entry("star then literal backtrack", "a*c", "abbbc", true),
		Entry("star then literal backtrack mismatch", "a*c", "abbbd", false),
		Entry("leading close-bracket is a class member", "[]a]x", "]x", true),
	)
})
