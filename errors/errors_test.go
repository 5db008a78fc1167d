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

package errors_test

import (
	goerrors "errors"

	. "github.com/boazsegev/facil-go/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	Context("classification", func() {
		It("carries its own code", func() {
			e := CodeTransient.Error(nil)
			Expect(e.Code()).To(Equal(CodeTransient))
			Expect(e.Is(CodeTransient)).To(BeTrue())
			Expect(e.Is(CodeConnectionFatal)).To(BeFalse())
		})

		It("reports a parent's code through Is", func() {
			parent := CodeTransient.Error(nil)
			child := CodeConnectionFatal.Error(parent)
			Expect(child.Is(CodeConnectionFatal)).To(BeTrue())
			Expect(child.Is(CodeTransient)).To(BeTrue())
		})
	})

	Context("hierarchy", func() {
		It("unwraps to its parents for errors.Is/As", func() {
			root := goerrors.New("root cause")
			e := CodeResourceExhausted.Error(root)
			Expect(goerrors.Is(e, root)).To(BeTrue())
		})

		It("accumulates multiple parents via Add", func() {
			e := CodeConnectionFatal.Error(nil)
			e.Add(goerrors.New("a"), nil, goerrors.New("b"))
			Expect(e.Unwrap()).To(HaveLen(2))
		})
	})

	Context("message formatting", func() {
		It("falls back to the code name when no message is set", func() {
			e := CodeLockContention.Error(nil)
			Expect(e.Error()).To(Equal("lock-contention"))
		})

		It("prefixes a custom message with its code", func() {
			e := Wrap(CodeUserCallback, "parser callback rejected request", nil)
			Expect(e.Error()).To(Equal("[user-callback] parser callback rejected request"))
		})
	})
})
