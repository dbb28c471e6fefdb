package hardware

import (
	"log/slog"
	"sync"
	"time"
)

// SimulatedHeadset stands in for the wireless headset proxy and the wired
// headset sensor when no real hardware is attached. ConnectAudio confirms
// after ConfirmDelay by invoking the connected callback with the same token.
type SimulatedHeadset struct {
	log          *slog.Logger
	confirmDelay time.Duration

	mu             sync.Mutex
	wireless       bool
	wired          bool
	audioToken     uint64 // link currently up, 0 when none
	onConnected    func(token uint64)
	onDisconnected func(token uint64)
	pending        *time.Timer
}

func NewSimulatedHeadset(log *slog.Logger, confirmDelay time.Duration) *SimulatedHeadset {
	if log == nil {
		log = slog.Default()
	}
	return &SimulatedHeadset{log: log.With("subsystem", "headset_sim"), confirmDelay: confirmDelay}
}

var (
	_ WirelessHeadsetProxy = (*SimulatedHeadset)(nil)
	_ WiredHeadsetSensor   = (*SimulatedHeadset)(nil)
)

// OnAudioConnected registers the confirmation callback. A negative
// ConfirmDelay disables confirmations, which lets the connect time out.
func (s *SimulatedHeadset) OnAudioConnected(fn func(token uint64)) {
	s.mu.Lock()
	s.onConnected = fn
	s.mu.Unlock()
}

// OnAudioDisconnected registers the callback invoked with the token of a
// link that went down.
func (s *SimulatedHeadset) OnAudioDisconnected(fn func(token uint64)) {
	s.mu.Lock()
	s.onDisconnected = fn
	s.mu.Unlock()
}

func (s *SimulatedHeadset) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wireless
}

func (s *SimulatedHeadset) IsPluggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wired
}

func (s *SimulatedHeadset) SetWirelessAvailable(v bool) {
	s.mu.Lock()
	s.wireless = v
	if !v {
		s.audioToken = 0
		s.stopPendingLocked()
	}
	s.mu.Unlock()
}

func (s *SimulatedHeadset) SetWiredPluggedIn(v bool) {
	s.mu.Lock()
	s.wired = v
	s.mu.Unlock()
}

func (s *SimulatedHeadset) ConnectAudio(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPendingLocked()
	if !s.wireless || s.confirmDelay < 0 {
		s.log.Warn("wireless audio connect not confirmed", "token", token, "available", s.wireless)
		return
	}
	s.log.Debug("wireless audio connecting", "token", token, "delay", s.confirmDelay)
	s.pending = time.AfterFunc(s.confirmDelay, func() {
		s.mu.Lock()
		if !s.wireless {
			s.mu.Unlock()
			return
		}
		s.audioToken = token
		s.pending = nil
		fn := s.onConnected
		s.mu.Unlock()
		if fn != nil {
			fn(token)
		}
	})
}

func (s *SimulatedHeadset) DisconnectAudio() {
	s.mu.Lock()
	s.stopPendingLocked()
	token := s.audioToken
	s.audioToken = 0
	fn := s.onDisconnected
	s.mu.Unlock()
	s.log.Debug("wireless audio disconnect", "token", token)
	if token != 0 && fn != nil {
		fn(token)
	}
}

func (s *SimulatedHeadset) stopPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
