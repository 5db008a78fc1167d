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

package cluster_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boazsegev/facil-go/cluster"
	deferred "github.com/boazsegev/facil-go/defer"
	"github.com/boazsegev/facil-go/reactor"
	"github.com/boazsegev/facil-go/socket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// pump drives q's deferred tasks in the background, the test-only
// stand-in for a real process's long-running cycle.
func pump(q *deferred.Queue, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		q.Perform()
		time.Sleep(time.Millisecond)
	}
}

type recorder struct {
	mu   sync.Mutex
	msgs [][2]string
}

func (r *recorder) handler(channel, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, [2]string{string(channel), string(data)})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

var _ = Describe("Bus", func() {
	It("delivers a worker-published message to the root and fans it back out (spec scenario 5)", func() {
		path := filepath.Join(os.TempDir(), "facil-go-test-cluster.sock")
		_ = os.Remove(path)
		defer os.Remove(path)

		stop := make(chan struct{})
		defer close(stop)

		rootQ := deferred.NewQueue()
		rootReg := socket.NewRegistry(64, nil)
		rootRe := reactor.New(rootReg, rootQ, nil)
		rootReg.SetDeferFunc(func(task func(a1, a2 interface{}), a1, a2 interface{}) { rootQ.Push(task, a1, a2) })
		go pump(rootQ, stop)

		root, err := cluster.NewRootAt(rootReg, rootRe, nil, path)
		Expect(err).NotTo(HaveOccurred())
		defer root.Shutdown()

		workerQ := deferred.NewQueue()
		workerReg := socket.NewRegistry(64, nil)
		workerRe := reactor.New(workerReg, workerQ, nil)
		workerReg.SetDeferFunc(func(task func(a1, a2 interface{}), a1, a2 interface{}) { workerQ.Push(task, a1, a2) })
		go pump(workerQ, stop)

		worker, err := cluster.NewWorkerAt(context.Background(), workerReg, workerRe, nil, path)
		Expect(err).NotTo(HaveOccurred())

		rootRecv := &recorder{}
		root.RegisterHandler(7, rootRecv.handler)
		workerRecv := &recorder{}
		worker.RegisterHandler(7, workerRecv.handler)

		Expect(worker.Publish(cluster.FrameForward, 7, []byte("news"), []byte("hello"))).To(Succeed())

		Eventually(rootRecv.count, time.Second, 10*time.Millisecond).Should(Equal(1))
		Expect(rootRecv.msgs[0]).To(Equal([2]string{"news", "hello"}))

		Expect(root.Publish(cluster.FrameForward, 7, []byte("broadcast"), []byte("world"))).To(Succeed())
		Eventually(workerRecv.count, time.Second, 10*time.Millisecond).Should(Equal(1))
		Expect(workerRecv.msgs[0]).To(Equal([2]string{"broadcast", "world"}))
	})

	It("notifies the worker on shutdown", func() {
		path := filepath.Join(os.TempDir(), "facil-go-test-cluster-shutdown.sock")
		_ = os.Remove(path)
		defer os.Remove(path)

		stop := make(chan struct{})
		defer close(stop)

		rootQ := deferred.NewQueue()
		rootReg := socket.NewRegistry(64, nil)
		rootRe := reactor.New(rootReg, rootQ, nil)
		rootReg.SetDeferFunc(func(task func(a1, a2 interface{}), a1, a2 interface{}) { rootQ.Push(task, a1, a2) })
		go pump(rootQ, stop)

		root, err := cluster.NewRootAt(rootReg, rootRe, nil, path)
		Expect(err).NotTo(HaveOccurred())

		workerQ := deferred.NewQueue()
		workerReg := socket.NewRegistry(64, nil)
		workerRe := reactor.New(workerReg, workerQ, nil)
		workerReg.SetDeferFunc(func(task func(a1, a2 interface{}), a1, a2 interface{}) { workerQ.Push(task, a1, a2) })
		go pump(workerQ, stop)

		worker, err := cluster.NewWorkerAt(context.Background(), workerReg, workerRe, nil, path)
		Expect(err).NotTo(HaveOccurred())

		var shut bool
		var mu sync.Mutex
		worker.OnShutdown = func() {
			mu.Lock()
			shut = true
			mu.Unlock()
		}

		Expect(root.Shutdown()).To(Succeed())

		Eventually(func() bool {
			mu.Lock()
			defer mu.Unlock()
			return shut
		}, time.Second, 10*time.Millisecond).Should(BeTrue())
	})
})
