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

package monitor_test

import (
	"context"
	"net"
	"time"

	"github.com/boazsegev/facil-go/monitor"
	"github.com/boazsegev/facil-go/socket"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func gaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	_ = g.Write(m)
	return m.GetGauge().GetValue()
}

var _ = Describe("Metrics", func() {
	It("registers cleanly and reflects the registry's open connection count", func() {
		m := monitor.NewMetrics()
		reg := prometheus.NewRegistry()
		Expect(m.Register(reg)).To(Succeed())

		sockets := socket.NewRegistry(16, nil)
		c1, c2 := net.Pipe()
		defer c1.Close()
		defer c2.Close()
		sockets.Register(c1)
		sockets.Register(c2)

		m.SampleRegistry(sockets)
		Expect(gaugeValue(m.OpenConnections)).To(Equal(2.0))
	})

	It("samples process CPU/RSS without error before the context is cancelled", func() {
		m := monitor.NewMetrics()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err := m.RunProcessSampler(ctx, 10*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(gaugeValue(m.ProcessRSS)).To(BeNumerically(">=", 0))
	})
})
