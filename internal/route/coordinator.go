package route

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/hardware"
	"callaudio/pkg/mailbox"
)

var (
	ErrStopped      = errors.New("route: coordinator stopped")
	ErrMissingInput = errors.New("route: driver, wireless proxy and wired sensor are required")
)

const DefaultConnectTimeout = 5 * time.Second

type Config struct {
	Driver   hardware.AudioDriver
	Wireless hardware.WirelessHeadsetProxy
	Wired    hardware.WiredHeadsetSensor

	// Listener is the call engine; Connection is the foreground connection's
	// status callback. Both are optional.
	Listener   Listener
	Connection Listener

	HasEarpiece    bool
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Coordinator owns the physical route. All state is confined to the
// goroutine executing Run.
type Coordinator struct {
	log         *slog.Logger
	driver      hardware.AudioDriver
	wireless    hardware.WirelessHeadsetProxy
	wired       hardware.WiredHeadsetSensor
	listener    Listener
	conn        Listener
	hasEarpiece bool
	timeout     time.Duration

	inbox *mailbox.Mailbox[envelope]
	done  chan struct{}

	focused      bool
	route        audio.Route
	available    audio.RouteMask
	muted        bool
	wasOnSpeaker bool
	userLeftBT   bool

	pending   *btConnect
	deferred  []Message
	lastToken uint64

	// last values pushed to hardware
	speakerOn    bool
	micMuted     bool
	btToken      uint64 // wireless audio link requested or held, 0 when none
	appliedRoute audio.Route

	published    audio.CallAudioState
	forcePublish bool
}

type btConnect struct {
	token uint64
	timer *time.Timer
}

type envelope struct {
	msg Message
	fn  func()
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Driver == nil || cfg.Wireless == nil || cfg.Wired == nil {
		return nil, ErrMissingInput
	}
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	c := &Coordinator{
		log:         l.With("subsystem", "route"),
		driver:      cfg.Driver,
		wireless:    cfg.Wireless,
		wired:       cfg.Wired,
		listener:    cfg.Listener,
		conn:        cfg.Connection,
		hasEarpiece: cfg.HasEarpiece,
		timeout:     timeout,
		inbox:       mailbox.New[envelope](),
		done:        make(chan struct{}),
	}
	c.reinitialize()
	c.published = c.current()
	return c, nil
}

// Send queues msg. It never blocks.
func (c *Coordinator) Send(msg Message) {
	if msg.Kind == bluetoothConnectTimeout {
		return
	}
	if !c.inbox.Put(envelope{msg: msg}) {
		c.log.Debug("message dropped after stop", "message", msg.Kind.String())
	}
}

// OnFocusChanged forwards focus changes from the mode coordinator.
func (c *Coordinator) OnFocusChanged(kind audio.FocusKind) {
	c.Send(Message{Kind: FocusChanged, Focus: kind})
}

func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.inbox.Close()
	c.log.Info("route coordinator started", "route", c.route.String(), "available", c.available.String())
	for {
		select {
		case <-ctx.Done():
			c.stopTimer()
			c.log.Info("route coordinator stopped", "route", c.route.String())
			return nil
		case <-c.inbox.C():
			for _, env := range c.inbox.Drain() {
				if env.fn != nil {
					env.fn()
					continue
				}
				c.handle(env.msg)
			}
		}
	}
}

// Flush returns once every message sent before the call has been handled.
// It does not wait for a pending Bluetooth connect to resolve.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.exec(ctx, func() {})
}

func (c *Coordinator) State(ctx context.Context) (Status, error) {
	var st Status
	err := c.exec(ctx, func() { st = c.status() })
	return st, err
}

func (c *Coordinator) exec(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !c.inbox.Put(envelope{fn: func() { fn(); close(ran) }}) {
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-c.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) status() Status {
	name := "quiescent_" + c.route.String()
	switch {
	case c.pending != nil:
		name = "pending_" + audio.RouteBluetooth.String()
	case c.focused:
		name = "active_" + c.route.String()
	}
	return Status{
		Name:              name,
		Audio:             c.current(),
		Focused:           c.focused,
		PendingBluetooth:  c.pending != nil,
		UserLeftBluetooth: c.userLeftBT,
	}
}

func (c *Coordinator) current() audio.CallAudioState {
	return audio.CallAudioState{Muted: c.muted, Route: c.route, Available: c.available}
}

// handle processes one external message including every internal follow-up,
// then publishes the resulting state at most once.
func (c *Coordinator) handle(msg Message) {
	if c.pending != nil && msg.Kind.changesRoute() {
		c.log.Debug("deferred until bluetooth resolves", "message", msg.Kind.String(), "token", c.pending.token)
		c.deferred = append(c.deferred, msg)
		return
	}
	c.dispatch(msg)
	c.publish()
}

func (c *Coordinator) dispatch(msg Message) {
	c.log.Debug("route message", "message", msg.Kind.String(), "route", c.route.String(), "focused", c.focused)
	switch msg.Kind {
	case ConnectWiredHeadset:
		c.onWiredConnected()
	case DisconnectWiredHeadset:
		c.onWiredDisconnected()
	case ConnectBluetooth:
		c.onBluetoothConnected()
	case DisconnectBluetooth:
		c.onBluetoothDisconnected()
	case BluetoothAudioConnected:
		c.onBluetoothAudioConnected(msg.Token)
	case BluetoothAudioDisconnected:
		c.onBluetoothAudioDisconnected(msg.Token)
	case bluetoothConnectTimeout:
		c.onBluetoothTimeout(msg.Token)
	case SwitchEarpiece:
		c.userSwitch(audio.RouteEarpiece)
	case SwitchSpeaker:
		c.userSwitch(audio.RouteSpeaker)
	case SwitchBluetooth:
		c.userSwitch(audio.RouteBluetooth)
	case SwitchHeadset:
		c.userSwitch(audio.RouteWiredHeadset)
	case SwitchBaselineRoute:
		c.switchTo(c.baseline())
	case MuteOn:
		c.setMute(true)
	case MuteOff:
		c.setMute(false)
	case ToggleMute:
		c.setMute(!c.muted)
	case FocusChanged:
		c.onFocusChanged(msg.Focus)
	case ResendAudioState:
		if c.focused {
			c.forcePublish = true
		}
	default:
		c.log.Warn("unexpected message dropped", "message", msg.Kind.String(), "route", c.route.String())
	}
}

func (c *Coordinator) publish() {
	if !c.focused || c.pending != nil {
		return
	}
	cur := c.current()
	if cur == c.published && !c.forcePublish {
		return
	}
	prev := c.published
	c.published = cur
	c.forcePublish = false
	c.log.Info("call audio state changed", "old", prev.String(), "new", cur.String())
	if c.listener != nil {
		c.listener.OnCallAudioStateChanged(prev, cur)
	}
	if c.conn != nil {
		c.conn.OnCallAudioStateChanged(prev, cur)
	}
}

// replayDeferred runs the messages held back by a pending connect, in
// order, until one of them starts another connect.
func (c *Coordinator) replayDeferred() {
	queue := c.deferred
	c.deferred = nil
	for i, msg := range queue {
		if c.pending != nil && msg.Kind.changesRoute() {
			c.deferred = append(c.deferred, queue[i:]...)
			return
		}
		c.dispatch(msg)
	}
}

func (c *Coordinator) stopTimer() {
	if c.pending != nil && c.pending.timer != nil {
		c.pending.timer.Stop()
	}
}
