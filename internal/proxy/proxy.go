// Package proxy wires the fault filter chains between the two endpoints.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/net/netutil"

	"firestige.xyz/faultline/internal/config"
	"firestige.xyz/faultline/internal/filter"
	"firestige.xyz/faultline/internal/metrics"
	"firestige.xyz/faultline/internal/transfer"
)

const readBufferSize = 4096

// Proxy accepts device connections and relays each one to the upstream
// host through the configured per-direction filter chains.
type Proxy struct {
	cfg      *config.Config
	classify filter.Classifier
}

// New creates a proxy for cfg using the transfer chunk classifier.
func New(cfg *config.Config) *Proxy {
	return &Proxy{cfg: cfg, classify: transfer.Classify}
}

// Run listens on the configured address and serves sessions until ctx is
// cancelled.
func (p *Proxy) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", p.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", p.cfg.Listen, err)
	}
	return p.Serve(ctx, l)
}

// Serve accepts sessions from l until ctx is cancelled. Sessions are
// handled one at a time: the transfer protocol under test owns the
// connection for the duration of a test run.
func (p *Proxy) Serve(ctx context.Context, l net.Listener) error {
	l = netutil.LimitListener(l, 1)
	defer l.Close()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	slog.Info("proxy listening", "listen", p.cfg.Listen, "upstream", p.cfg.Upstream)

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		metrics.SessionsTotal.Inc()
		p.handleSession(ctx, conn)
	}
}

// handleSession relays one device connection until either side closes or
// ctx is cancelled.
func (p *Proxy) handleSession(ctx context.Context, device net.Conn) {
	defer device.Close()

	slog.Info("session started", "device", device.RemoteAddr().String())

	var dialer net.Dialer
	host, err := dialer.DialContext(ctx, "tcp", p.cfg.Upstream)
	if err != nil {
		slog.Error("upstream dial failed", "upstream", p.cfg.Upstream, "error", err)
		return
	}
	defer host.Close()

	queue := filter.NewQueue(p.cfg.EventQueueSize)
	dispatcher := filter.NewDispatcher(queue)

	deviceToHost, err := filter.Build("device_to_host", p.cfg.DeviceToHost,
		connWriter(host), p.classify, queue, dispatcher)
	if err != nil {
		slog.Error("building device_to_host chain failed", "error", err)
		return
	}
	hostToDevice, err := filter.Build("host_to_device", p.cfg.HostToDevice,
		connWriter(device), p.classify, queue, dispatcher)
	if err != nil {
		slog.Error("building host_to_device chain failed", "error", err)
		return
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the sockets is what unblocks the pump reads.
	go func() {
		<-sessCtx.Done()
		device.Close()
		host.Close()
	}()

	// The dispatcher must outlive sessCtx: events buffered when a pump
	// dies still belong to the session. Closing the queue below is what
	// ends this goroutine, after the buffered events have been drained.
	var dispatcherWG sync.WaitGroup
	dispatcherWG.Add(1)
	go func() {
		defer dispatcherWG.Done()
		dispatcher.Run(context.Background())
	}()

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		defer cancel()
		pump(device, deviceToHost)
	}()
	go func() {
		defer pumps.Done()
		defer cancel()
		pump(host, hostToDevice)
	}()
	pumps.Wait()

	// Flush held packets through the chains before tearing the event
	// plumbing down; writes may fail if the peer is already gone.
	if err := deviceToHost.Close(); err != nil {
		slog.Debug("device_to_host close", "error", err)
	}
	if err := hostToDevice.Close(); err != nil {
		slog.Debug("host_to_device close", "error", err)
	}

	queue.Close()
	dispatcherWG.Wait()

	slog.Info("session ended", "device", device.RemoteAddr().String())
}

// pump reads src until it fails and feeds every read into the chain.
func pump(src net.Conn, chain *filter.Chain) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			metrics.BytesTotal.WithLabelValues(chain.Name()).Add(float64(n))

			// Filters may hold a packet past this call, so every read
			// gets its own copy.
			data := make([]byte, n)
			copy(data, buf[:n])
			if perr := chain.Process(data); perr != nil {
				if !isClosedConn(perr) {
					slog.Error("chain processing failed", "direction", chain.Name(), "error", perr)
				}
				return
			}
		}
		if err != nil {
			if err != io.EOF && !isClosedConn(err) {
				slog.Warn("read failed", "direction", chain.Name(), "error", err)
			}
			return
		}
	}
}

// connWriter adapts a connection into a chain terminal. The mutex
// serializes writes from the direction goroutine and timer flushes.
func connWriter(conn net.Conn) filter.SendFunc {
	var mu sync.Mutex
	return func(packet []byte) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := conn.Write(packet)
		return err
	}
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
