package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/vlink/internal/cleanup"
	"github.com/danmuck/vlink/internal/netsock"
	"github.com/danmuck/vlink/internal/protocol/frame"
	"github.com/danmuck/vlink/internal/protocol/handshake"
	"github.com/danmuck/vlink/internal/protocol/sendtype"
	"github.com/danmuck/vlink/internal/telemetry"

	"github.com/rs/zerolog/log"
)

type state int32

const (
	stateFresh state = iota
	stateBound
	stateReady
	stateRunning
	stateClosed
)

// heartbeatInterval and minStalenessLimit are vars, not consts, so tests
// can shrink them rather than waiting out real multi-second timers.
var (
	heartbeatInterval = 100 * time.Millisecond
	minStalenessLimit = 5 * time.Second
)

const recvBufferSize = 2048

// ErrInvalidState means the requested operation is not valid for the
// channel's current lifecycle state.
var ErrInvalidState = errors.New("channel: invalid operation for current state")

// ErrWidthMismatch means Send was called with a vector of the wrong width.
var ErrWidthMismatch = errors.New("channel: value count does not match num_outputs")

// Config holds a channel's immutable construction-time parameters.
type Config struct {
	LocalMaxAge      time.Duration
	DelayTracking    bool
	SendType         sendtype.Type
	SocketTimeout    time.Duration
	HandshakeTimeout time.Duration
	DebugEnabled     bool
	CleanupPort      uint16
}

// DefaultConfig mirrors the wire defaults from the embedding surface.
func DefaultConfig() Config {
	return Config{
		LocalMaxAge:      3 * time.Second,
		SendType:         sendtype.Float32,
		SocketTimeout:    2 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		CleanupPort:      7123,
	}
}

// Status is a point-in-time snapshot returned by GetStatus.
type Status struct {
	Running                bool
	PacketsReceived        uint64
	PacketsSent            uint64
	PacketsExpired         uint64
	PacketsCorrupted       uint64
	PacketsShapeInvalid    uint64
	TimeSinceLastPacket    time.Duration
	HasTimeSinceLastPacket bool
	HasData                bool
	LocalSendType          sendtype.Type
	RemoteSendType         sendtype.Type
	NumInputs              uint16
	NumOutputs             uint16
}

// Channel is the session controller: one UDP socket, one cleanup
// signaler, and at runtime one receive-loop worker plus an optional
// heartbeat watchdog.
type Channel struct {
	cfg Config

	state atomic.Int32

	numInputs  uint16
	numOutputs uint16
	isServer   bool

	sock       *netsock.Socket
	cleanupSig *cleanup.Signaler
	recorder   *telemetry.Recorder

	remoteSendType sendtype.Type
	remoteMaxAge   uint16

	dataMu         sync.RWMutex
	latestData     []float32
	lastPacketTime time.Time
	consumed       bool

	packetsReceived     atomic.Uint64
	packetsSent         atomic.Uint64
	packetsExpired      atomic.Uint64
	packetsCorrupted    atomic.Uint64
	packetsShapeInvalid atomic.Uint64

	stats delayStats

	stopRequested atomic.Bool
	wg            sync.WaitGroup

	closeMu sync.Mutex
}

// New constructs a Channel in the Fresh state.
func New(cfg Config) *Channel {
	return &Channel{cfg: cfg}
}

// AttachTelemetry enables Prometheus counters for this channel, labeled
// with role ("server" or "client"). Optional: a channel with no recorder
// attached still tracks its own atomic counters.
func (c *Channel) AttachTelemetry(role string) {
	c.recorder = telemetry.NewRecorder(role)
}

func (c *Channel) loadState() state { return state(c.state.Load()) }
func (c *Channel) setState(s state) { c.state.Store(int32(s)) }

// Setup establishes the cleanup TCP connection, then creates and
// configures the UDP endpoint. On any failure the channel remains Fresh.
func (c *Channel) Setup(ctx context.Context, host string, port uint16, numInputs, numOutputs uint16, isServer bool) error {
	if c.loadState() != stateFresh {
		return fmt.Errorf("%w: setup requires Fresh", ErrInvalidState)
	}

	sig := cleanup.New(c.cfg.CleanupPort)
	if err := sig.Dial(ctx); err != nil {
		return fmt.Errorf("channel: setup: cleanup dial failed: %w", err)
	}

	var sock *netsock.Socket
	var err error
	if isServer {
		sock, err = netsock.Bind(port)
	} else {
		sock, err = netsock.Connect(host, port)
	}
	if err != nil {
		sig.Close()
		return fmt.Errorf("channel: setup: %w", err)
	}
	if err := sock.SetTimeout(c.cfg.SocketTimeout); err != nil {
		sock.Close()
		sig.Close()
		return fmt.Errorf("channel: setup: set timeout: %w", err)
	}

	c.cleanupSig = sig
	c.sock = sock
	c.numInputs = numInputs
	c.numOutputs = numOutputs
	c.isServer = isServer
	c.setState(stateBound)
	log.Info().Uint16("port", port).Bool("is_server", isServer).Msg("channel: bound")
	return nil
}

// Handshake runs the 7-byte negotiation exchange described in
// internal/protocol/handshake.
func (c *Channel) Handshake(timeout time.Duration) error {
	if c.loadState() != stateBound {
		return fmt.Errorf("%w: handshake requires Bound", ErrInvalidState)
	}

	if err := c.sock.SetTimeout(timeout); err != nil {
		return fmt.Errorf("channel: handshake: set timeout: %w", err)
	}
	restoreTimeout := func() {
		if err := c.sock.SetTimeout(c.cfg.SocketTimeout); err != nil {
			log.Info().Err(err).Msg("channel: failed to restore steady-state timeout, continuing")
		}
	}

	ours := handshake.Message{
		NumOutputs: c.numOutputs,
		NumInputs:  c.numInputs,
		SendType:   c.cfg.SendType,
		MaxAgeSec:  uint16(c.cfg.LocalMaxAge.Truncate(time.Second).Seconds()),
	}
	encoded := handshake.Encode(ours)

	var peer handshake.Message
	var peerErr error
	if c.isServer {
		peer, peerErr = c.handshakeServer(encoded)
	} else {
		peer, peerErr = c.handshakeClient(encoded)
	}
	restoreTimeout()
	if peerErr != nil {
		return peerErr
	}

	if err := handshake.CrossCheck(peer, c.numInputs, c.numOutputs); err != nil {
		return err
	}

	c.remoteSendType = peer.SendType
	c.remoteMaxAge = peer.MaxAgeSec
	c.setState(stateReady)
	log.Debug().
		Str("remote_send_type", peer.SendType.String()).
		Uint16("remote_max_age", peer.MaxAgeSec).
		Msg("channel: handshake ok")
	return nil
}

func (c *Channel) handshakeClient(encoded []byte) (handshake.Message, error) {
	if _, err := c.sock.SendToRemote(encoded); err != nil {
		log.Warn().Err(err).Msg("channel: handshake send failed, awaiting reply anyway")
	}
	buf := make([]byte, handshake.Size+1)
	n, from, err := c.sock.RecvFrom(buf)
	if err != nil {
		return handshake.Message{}, fmt.Errorf("channel: handshake receive: %w", err)
	}
	peer, err := handshake.Decode(buf[:n])
	if err != nil {
		return handshake.Message{}, fmt.Errorf("channel: handshake: %w", err)
	}
	c.sock.SetRemote(from)
	return peer, nil
}

func (c *Channel) handshakeServer(encoded []byte) (handshake.Message, error) {
	buf := make([]byte, handshake.Size+1)
	n, from, err := c.sock.RecvFrom(buf)
	if err != nil {
		return handshake.Message{}, fmt.Errorf("channel: handshake receive: %w", err)
	}
	peer, err := handshake.Decode(buf[:n])
	if err != nil {
		return handshake.Message{}, fmt.Errorf("channel: handshake: %w", err)
	}
	if _, err := c.sock.SendTo(encoded, from); err != nil {
		return handshake.Message{}, fmt.Errorf("channel: handshake reply: %w", err)
	}
	c.sock.SetRemote(from)
	return peer, nil
}

// Start spawns the receive loop and, if num_inputs > 0, the heartbeat
// watchdog. Idempotent once Running.
func (c *Channel) Start() error {
	if c.loadState() == stateRunning {
		return nil
	}
	if c.loadState() != stateReady {
		return fmt.Errorf("%w: start requires Ready", ErrInvalidState)
	}

	c.stopRequested.Store(false)
	c.dataMu.Lock()
	c.lastPacketTime = time.Now()
	c.dataMu.Unlock()

	c.setState(stateRunning)

	c.wg.Add(1)
	go c.receiveLoop()

	if c.numInputs > 0 {
		c.wg.Add(1)
		go c.heartbeatLoop()
	}
	log.Info().Msg("channel: started")
	return nil
}

func (c *Channel) receiveLoop() {
	defer c.wg.Done()
	buf := make([]byte, recvBufferSize)
	for {
		if c.stopRequested.Load() {
			return
		}
		n, from, err := c.sock.RecvFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if c.stopRequested.Load() {
				return
			}
			log.Error().Err(err).Msg("channel: receive failed")
			c.cleanupSig.Signal()
			return
		}
		if c.cfg.DebugEnabled {
			log.Debug().Int("bytes", n).Stringer("from", from).Msg("channel: datagram received")
		}
		c.handleDatagram(buf[:n])
	}
}

func (c *Channel) handleDatagram(b []byte) {
	values, err := frame.Decode(b, int(c.numInputs))
	if err != nil {
		switch {
		case errors.Is(err, frame.ErrCorrupt):
			c.packetsCorrupted.Add(1)
			if c.recorder != nil {
				c.recorder.Corrupted()
			}
		case errors.Is(err, frame.ErrShapeInvalid):
			c.packetsShapeInvalid.Add(1)
			if c.recorder != nil {
				c.recorder.ShapeInvalid()
			}
		}
		return
	}

	now := time.Now()
	c.dataMu.Lock()
	interval := now.Sub(c.lastPacketTime)
	c.latestData = values
	c.consumed = false
	c.lastPacketTime = now
	c.dataMu.Unlock()

	c.packetsReceived.Add(1)
	if c.recorder != nil {
		c.recorder.Received()
	}
	if c.cfg.DelayTracking {
		c.stats.update(interval)
	}
}

func (c *Channel) heartbeatLoop() {
	defer c.wg.Done()
	limit := stalenessLimit(c.cfg.LocalMaxAge)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		if c.stopRequested.Load() {
			return
		}
		<-ticker.C
		if c.stopRequested.Load() {
			return
		}
		c.dataMu.RLock()
		last := c.lastPacketTime
		c.dataMu.RUnlock()
		if time.Since(last) > limit {
			if !c.stopRequested.Load() {
				log.Error().Msg("channel: data timeout, connection stale")
				c.cleanupSig.Signal()
			}
			return
		}
	}
}

// stalenessLimit truncates 3*localMaxAge to whole seconds, then floors it
// at 5 seconds.
func stalenessLimit(localMaxAge time.Duration) time.Duration {
	scaled := (3 * localMaxAge).Truncate(time.Second)
	if scaled < minStalenessLimit {
		return minStalenessLimit
	}
	return scaled
}

// Send frames and transmits one outgoing vector. Valid from Bound onward.
func (c *Channel) Send(values []float32) error {
	if len(values) != int(c.numOutputs) {
		return fmt.Errorf("%w: want %d got %d", ErrWidthMismatch, c.numOutputs, len(values))
	}
	switch c.loadState() {
	case stateFresh, stateClosed:
		return fmt.Errorf("%w: send requires Bound or later", ErrInvalidState)
	}

	encoded := frame.Encode(values)
	if _, err := c.sock.SendToRemote(encoded); err != nil {
		return fmt.Errorf("channel: send failed: %w", err)
	}
	c.packetsSent.Add(1)
	if c.recorder != nil {
		c.recorder.Sent()
	}
	return nil
}

// GetLatest returns the most recent unconsumed sample if present and
// within LocalMaxAge, marking it consumed. An expired-but-present sample
// counts as packets_expired and returns false.
func (c *Channel) GetLatest() ([]float32, bool) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()

	if c.latestData == nil || c.consumed {
		return nil, false
	}
	if time.Since(c.lastPacketTime) > c.cfg.LocalMaxAge {
		c.packetsExpired.Add(1)
		if c.recorder != nil {
			c.recorder.Expired()
		}
		return nil, false
	}

	c.consumed = true
	out := make([]float32, len(c.latestData))
	copy(out, c.latestData)
	return out, true
}

// GetStatus returns a snapshot of counters, liveness and negotiated
// parameters under the data lock.
func (c *Channel) GetStatus() Status {
	c.dataMu.RLock()
	defer c.dataMu.RUnlock()

	st := Status{
		Running:             c.loadState() == stateRunning,
		PacketsReceived:     c.packetsReceived.Load(),
		PacketsSent:         c.packetsSent.Load(),
		PacketsExpired:      c.packetsExpired.Load(),
		PacketsCorrupted:    c.packetsCorrupted.Load(),
		PacketsShapeInvalid: c.packetsShapeInvalid.Load(),
		HasData:             len(c.latestData) > 0,
		LocalSendType:       c.cfg.SendType,
		RemoteSendType:      c.remoteSendType,
		NumInputs:           c.numInputs,
		NumOutputs:          c.numOutputs,
	}
	if !c.lastPacketTime.IsZero() {
		st.HasTimeSinceLastPacket = true
		st.TimeSinceLastPacket = time.Since(c.lastPacketTime)
	}
	return st
}

// LocalPort returns the UDP port this channel is bound or connected on,
// useful when Setup was called with port 0 for an OS-assigned port.
func (c *Channel) LocalPort() uint16 {
	if c.sock == nil {
		return 0
	}
	return uint16(c.sock.LocalAddr().Port)
}

// GetExpectedRecvPacketSize returns the steady-state datagram size this
// channel expects to receive: num_inputs*4 + 2 (CRC).
func (c *Channel) GetExpectedRecvPacketSize() int {
	return frame.EncodedSize(int(c.numInputs))
}

// PrintPacketStats logs the five packet counters at info level.
func (c *Channel) PrintPacketStats() {
	st := c.GetStatus()
	log.Info().
		Uint64("received", st.PacketsReceived).
		Uint64("sent", st.PacketsSent).
		Uint64("expired", st.PacketsExpired).
		Uint64("corrupted", st.PacketsCorrupted).
		Uint64("shape_invalid", st.PacketsShapeInvalid).
		Msg("channel: packet stats")
}

// PrintDelayStats logs the Welford delay statistics at info level, a
// no-op if delay tracking is disabled or no samples have arrived.
func (c *Channel) PrintDelayStats() {
	if !c.cfg.DelayTracking {
		return
	}
	snap := c.stats.snapshot()
	if snap.Count == 0 {
		return
	}
	log.Info().
		Float64("mean_ms", snap.Mean*1000).
		Float64("stddev_ms", snap.StdDev*1000).
		Float64("min_ms", snap.Min*1000).
		Float64("max_ms", snap.Max*1000).
		Msg("channel: delay stats")
}

// Close requests worker shutdown, closes the UDP socket, joins both
// workers, then closes the cleanup signaler. Idempotent and safe from
// any state.
func (c *Channel) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.loadState() == stateClosed {
		return nil
	}

	c.stopRequested.Store(true)
	if c.sock != nil {
		c.sock.Close()
	}
	c.wg.Wait()
	if c.cleanupSig != nil {
		c.cleanupSig.Close()
	}
	c.setState(stateClosed)
	log.Info().Msg("channel: closed")
	return nil
}
