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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boazsegev/facil-go/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const validYAML = `
socket:
  network: tcp
  addr: "127.0.0.1:9000"
cluster:
  enabled: false
http:
  max_header_bytes: 4096
  max_header_count: 32
  max_body_bytes: 1048576
`

const invalidYAML = `
socket:
  network: carrier-pigeon
  addr: "127.0.0.1:9000"
`

var _ = Describe("Load", func() {
	var path string

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		path = filepath.Join(dir, "facil.yaml")
	})

	It("loads and validates a well-formed document", func() {
		Expect(os.WriteFile(path, []byte(validYAML), 0o644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Socket.Network).To(Equal("tcp"))
		Expect(cfg.Socket.Addr).To(Equal("127.0.0.1:9000"))
		Expect(cfg.HTTP.Limits().MaxHeaderBytes).To(Equal(4096))
	})

	It("rejects a socket network outside the allowed set", func() {
		Expect(os.WriteFile(path, []byte(invalidYAML), 0o644)).To(Succeed())

		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("falls back to DefaultLimits fields the document leaves zero", func() {
		Expect(os.WriteFile(path, []byte(validYAML), 0o644)).To(Succeed())
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		cfg.HTTP.MaxBodyBytes = 0
		Expect(cfg.HTTP.Limits().MaxBodyBytes).To(BeNumerically(">", 0))
	})

	It("reports reload errors instead of adopting a malformed edit", func() {
		Expect(os.WriteFile(path, []byte(validYAML), 0o644)).To(Succeed())

		results := make(chan error, 4)
		w, err := config.Watch(path, func(cfg *config.Config, err error) {
			results <- err
		})
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		Expect(os.WriteFile(path, []byte(invalidYAML), 0o644)).To(Succeed())

		Eventually(results, time.Second, 10*time.Millisecond).Should(Receive(HaveOccurred()))
	})
})
