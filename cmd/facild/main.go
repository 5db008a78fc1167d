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

// Command facild wires every component this module builds into one
// running process: the deferred-task queue and pool, the socket
// registry, the reactor, an HTTP/1.1 server atop http1/httpresp, the
// cluster bus (root or worker), and a pub/sub hub bridged onto it —
// the end-to-end shape spec.md §8's scenarios walk through.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boazsegev/facil-go/cluster"
	clusterengine "github.com/boazsegev/facil-go/pubsub/engines/cluster"
	natsengine "github.com/boazsegev/facil-go/pubsub/engines/nats"
	processengine "github.com/boazsegev/facil-go/pubsub/engines/process"
	siblingsengine "github.com/boazsegev/facil-go/pubsub/engines/siblings"

	"github.com/boazsegev/facil-go/config"
	deferred "github.com/boazsegev/facil-go/defer"
	"github.com/boazsegev/facil-go/http1"
	"github.com/boazsegev/facil-go/httpresp"
	"github.com/boazsegev/facil-go/httpserver"
	"github.com/boazsegev/facil-go/logger"
	loglvl "github.com/boazsegev/facil-go/logger/level"
	"github.com/boazsegev/facil-go/monitor"
	"github.com/boazsegev/facil-go/pubsub"
	"github.com/boazsegev/facil-go/reactor"
	"github.com/boazsegev/facil-go/socket"

	natsgo "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a facild config file (yaml/json/toml); overrides -listen")
		listenAddr = flag.String("listen", ":8080", "HTTP listen address, used when -config is not given")
		asRoot     = flag.Bool("cluster-root", false, "run as the cluster bus root for this pid")
		workerOf   = flag.Int("cluster-worker-of", 0, "run as a cluster bus worker connecting to this root pid")
		natsURL    = flag.String("nats-url", "", "NATS server URL; when set, publishes also fan out over a NATS subject")
	)
	flag.Parse()

	log := logger.New(os.Stderr)
	log.SetLevel(loglvl.InfoLevel)

	limits := http1.DefaultLimits()
	addr := *listenAddr
	network := "tcp"
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("config: %s", err)
		}
		network, addr = cfg.Socket.Network, cfg.Socket.Addr
		limits = cfg.HTTP.Limits()
	}

	queue := deferred.NewQueue()
	pool := deferred.StartPool(queue, 4, deferred.DefaultStrategy())

	reg := socket.NewRegistry(0, nil)
	react := reactor.New(reg, queue, log)

	hub := pubsub.New(queue)
	hub.SetEngine(pubsub.EngineProcess, processengine.Engine{})

	var bus *cluster.Bus
	switch {
	case *asRoot:
		b, err := cluster.NewRoot(reg, react, log, os.Getpid())
		if err != nil {
			log.Fatal("cluster root: %s", err)
		}
		bus = b
		log.Info("cluster bus listening as root pid=%d at %s", os.Getpid(), cluster.SocketPath(os.Getpid()))
	case *workerOf != 0:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		b, err := cluster.NewWorker(ctx, reg, react, log, *workerOf)
		cancel()
		if err != nil {
			log.Fatal("cluster worker: %s", err)
		}
		bus = b
		log.Info("cluster bus connected as worker of root pid=%d", *workerOf)
	}
	if bus != nil {
		hub.SetEngine(pubsub.EngineCluster, clusterengine.New(bus, hub))
		hub.SetEngine(pubsub.EngineSiblings, siblingsengine.New(bus, hub))
	}

	var natsConn *natsgo.Conn
	if *natsURL != "" {
		conn, err := natsgo.Connect(*natsURL)
		if err != nil {
			log.Fatal("nats connect %s: %s", *natsURL, err)
		}
		natsConn = conn
		hub.SetEngine(pubsub.EngineNATS, natsengine.New(conn, hub))
		log.Info("nats engine connected to %s", *natsURL)
	}

	hub.Subscribe("broadcast", false, func(msg *pubsub.Message) {
		log.Info("broadcast: %s", string(msg.Data))
	}, nil, nil, nil)

	metrics := monitor.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics: %s", err)
	}
	samplerCtx, stopSampler := context.WithCancel(context.Background())
	go metrics.RunProcessSampler(samplerCtx, 2*time.Second)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-samplerCtx.Done():
				return
			case <-ticker.C:
				metrics.SampleRegistry(reg)
			}
		}
	}()

	srv := &httpserver.Server{
		Reg:     reg,
		React:   react,
		Log:     log,
		Limits:  limits,
		Handler: routes(hub),
	}

	ln, err := socket.Listen(network, addr)
	if err != nil {
		log.Fatal("listen %s %s: %s", network, addr, err)
	}
	react.Listen(ln, srv.Factory())
	log.Info("facild listening on %s %s", network, addr)

	go react.Run()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	stopSampler()
	react.Stop()
	pool.Stop()
	pool.Wait()
	if bus != nil {
		_ = bus.Shutdown()
	}
	if natsConn != nil {
		natsConn.Close()
	}
}

// routes answers the handful of end-to-end paths spec.md §8 walks
// through: a plain response, a chunked response, an echo of the request
// (exercising pipelining since multiple requests arrive back to back on
// the same connection), and a pub/sub publish triggered over HTTP.
func routes(hub *pubsub.Hub) httpserver.Handler {
	return func(w *httpresp.Writer, req *httpserver.Request) {
		switch req.Path {
		case "/":
			_ = w.Send([]byte("facil-go\n"))
		case "/echo":
			body := fmt.Sprintf("%s %s%s\n", req.Method, req.Path, queryOf(req.Query))
			_ = w.Send([]byte(body))
		case "/chunked":
			_ = w.BeginChunked()
			for i := 0; i < 3; i++ {
				_ = w.WriteChunk([]byte(fmt.Sprintf("chunk %d\n", i)))
			}
			_ = w.Close()
		case "/publish":
			channel := req.Header("x-channel")
			if channel == "" {
				channel = "broadcast"
			}
			if err := hub.Publish(pubsub.EngineCluster, channel, req.Body); err != nil {
				w.SetStatus(500)
				_ = w.Send([]byte(err.Error()))
				return
			}
			w.SetStatus(202)
			_ = w.Send(nil)
		default:
			w.SetStatus(404)
			_ = w.Send([]byte("not found\n"))
		}
	}
}

func queryOf(q string) string {
	if q == "" {
		return ""
	}
	return "?" + q
}
