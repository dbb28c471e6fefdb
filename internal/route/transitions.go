package route

import (
	"time"

	"callaudio/internal/audio"
)

// reinitialize recomputes the quiescent state from hardware presence.
// Initial route priority: bluetooth, wired headset, earpiece, speaker.
func (c *Coordinator) reinitialize() {
	mask := audio.MaskOf()
	if c.wired.IsPluggedIn() {
		mask = mask.With(audio.RouteWiredHeadset)
	} else if c.hasEarpiece {
		mask = mask.With(audio.RouteEarpiece)
	}
	if c.wireless.IsAvailable() {
		mask = mask.With(audio.RouteBluetooth)
	}
	c.available = mask

	switch {
	case mask.Has(audio.RouteBluetooth):
		c.route = audio.RouteBluetooth
	case mask.Has(audio.RouteWiredHeadset):
		c.route = audio.RouteWiredHeadset
	case mask.Has(audio.RouteEarpiece):
		c.route = audio.RouteEarpiece
	default:
		c.route = audio.RouteSpeaker
	}
	c.muted = false
	c.wasOnSpeaker = false
	c.userLeftBT = false
}

// baseline is earpiece if available, else wired headset, else speaker.
func (c *Coordinator) baseline() audio.Route {
	switch {
	case c.available.Has(audio.RouteEarpiece):
		return audio.RouteEarpiece
	case c.available.Has(audio.RouteWiredHeadset):
		return audio.RouteWiredHeadset
	default:
		return audio.RouteSpeaker
	}
}

func (c *Coordinator) onFocusChanged(kind audio.FocusKind) {
	if kind.Held() == c.focused {
		return
	}
	if kind.Held() {
		c.focused = true
		target := c.route
		if !c.available.Has(target) {
			target = c.baseline()
		}
		if target == audio.RouteBluetooth {
			c.route = c.baseline()
		}
		c.applyActive(target)
		c.pushMute()
		return
	}

	c.cancelPending()
	c.disconnectWirelessAudio()
	c.setSpeaker(false)
	c.focused = false
	c.reinitialize()
	c.pushMute()
	c.replayDeferred()
}

func (c *Coordinator) onWiredConnected() {
	c.available = c.available.With(audio.RouteWiredHeadset).Without(audio.RouteEarpiece)
	if c.route == audio.RouteBluetooth {
		c.log.Info("wired headset connected, staying on bluetooth")
		return
	}
	c.switchTo(audio.RouteWiredHeadset)
}

func (c *Coordinator) onWiredDisconnected() {
	c.available = c.available.Without(audio.RouteWiredHeadset)
	if c.hasEarpiece {
		c.available = c.available.With(audio.RouteEarpiece)
	}
	if c.route != audio.RouteWiredHeadset {
		return
	}
	if c.wasOnSpeaker {
		c.switchTo(audio.RouteSpeaker)
		return
	}
	c.switchTo(c.baseline())
}

func (c *Coordinator) onBluetoothConnected() {
	c.available = c.available.With(audio.RouteBluetooth)
	if c.route == audio.RouteBluetooth {
		return
	}
	if c.userLeftBT {
		c.log.Info("bluetooth available, not switching after user left it")
		return
	}
	c.switchTo(audio.RouteBluetooth)
}

func (c *Coordinator) onBluetoothDisconnected() {
	c.available = c.available.Without(audio.RouteBluetooth)
	wasPending := c.pending != nil
	c.cancelPending()
	c.disconnectWirelessAudio()
	if c.route == audio.RouteBluetooth {
		c.wasOnSpeaker = false
		c.switchTo(c.baseline())
	} else if wasPending && c.focused {
		c.applyActive(c.route)
	}
	if wasPending {
		c.replayDeferred()
	}
}

func (c *Coordinator) onBluetoothAudioConnected(token uint64) {
	if c.pending == nil || c.pending.token != token {
		c.log.Warn("stale bluetooth confirmation dropped", "token", token, "pending", c.pending != nil)
		return
	}
	c.cancelPending()
	c.setSpeaker(false)
	c.setDriverRoute(audio.RouteBluetooth)
	c.route = audio.RouteBluetooth
	c.log.Info("bluetooth audio connected", "token", token)
	c.replayDeferred()
}

// onBluetoothAudioDisconnected handles the headset dropping the link named
// by token. Reports for a link the coordinator already released are stale.
func (c *Coordinator) onBluetoothAudioDisconnected(token uint64) {
	if token == 0 || token != c.btToken {
		c.log.Debug("stale bluetooth disconnect dropped", "token", token, "current", c.btToken)
		return
	}
	c.btToken = 0
	if c.pending != nil {
		c.log.Warn("bluetooth audio dropped while connecting", "token", token)
		c.failPending()
		return
	}
	if !c.focused || c.route != audio.RouteBluetooth {
		return
	}
	c.switchTo(c.baseline())
}

func (c *Coordinator) onBluetoothTimeout(token uint64) {
	if c.pending == nil || c.pending.token != token {
		return
	}
	c.log.Warn("bluetooth connect timed out", "token", token, "fallback", c.route.String())
	c.failPending()
}

// failPending abandons the outstanding connect and settles on the route
// that was in use before it.
func (c *Coordinator) failPending() {
	c.cancelPending()
	c.disconnectWirelessAudio()
	target := c.route
	if !c.available.Has(target) || target == audio.RouteBluetooth {
		target = c.baseline()
	}
	c.applyActive(target)
	c.replayDeferred()
}

func (c *Coordinator) userSwitch(target audio.Route) {
	if !c.available.Has(target) {
		c.log.Warn("switch ignored, route not available", "target", target.String(), "available", c.available.String())
		return
	}
	if target == audio.RouteBluetooth {
		c.userLeftBT = false
	} else if c.route == audio.RouteBluetooth {
		c.userLeftBT = true
	}
	if target != audio.RouteSpeaker {
		c.wasOnSpeaker = false
	}
	c.switchTo(target)
}

// switchTo changes the route. Without focus only the recorded preference
// changes.
func (c *Coordinator) switchTo(target audio.Route) {
	if !c.available.Has(target) {
		c.log.Warn("switch ignored, route not available", "target", target.String(), "available", c.available.String())
		return
	}
	if !c.focused {
		c.route = target
		return
	}
	c.applyActive(target)
}

// applyActive drives hardware to target. Bluetooth goes through a pending
// connect; everything else is applied at once.
func (c *Coordinator) applyActive(target audio.Route) {
	if target == audio.RouteBluetooth {
		c.connectBluetoothAudio()
		return
	}
	c.disconnectWirelessAudio()
	c.setSpeaker(target == audio.RouteSpeaker)
	c.setDriverRoute(target)
	c.route = target
	if target == audio.RouteSpeaker {
		c.wasOnSpeaker = true
	}
}

func (c *Coordinator) connectBluetoothAudio() {
	if c.pending != nil || (c.btToken != 0 && c.route == audio.RouteBluetooth) {
		return
	}
	c.lastToken++
	token := c.lastToken
	c.btToken = token
	c.pending = &btConnect{token: token}
	c.pending.timer = time.AfterFunc(c.timeout, func() {
		c.inbox.Put(envelope{msg: Message{Kind: bluetoothConnectTimeout, Token: token}})
	})
	c.log.Info("bluetooth audio connecting", "token", token, "timeout", c.timeout)
	c.wireless.ConnectAudio(token)
}

// disconnectWirelessAudio releases the link requested by the last connect,
// if any. The proxy may still report that link's disconnect afterwards.
func (c *Coordinator) disconnectWirelessAudio() {
	if c.btToken == 0 {
		return
	}
	c.wireless.DisconnectAudio()
	c.btToken = 0
}

func (c *Coordinator) cancelPending() {
	if c.pending == nil {
		return
	}
	c.stopTimer()
	c.pending = nil
}

func (c *Coordinator) setSpeaker(on bool) {
	if c.speakerOn == on {
		return
	}
	c.driver.SetSpeakerphone(on)
	c.speakerOn = on
}

func (c *Coordinator) setDriverRoute(r audio.Route) {
	if c.appliedRoute == r {
		return
	}
	c.driver.SetRoute(r)
	c.appliedRoute = r
}

func (c *Coordinator) setMute(on bool) {
	c.muted = on
	c.pushMute()
}

// pushMute applies the recorded mute to the microphone while focused, and
// unmutes it otherwise.
func (c *Coordinator) pushMute() {
	want := c.muted && c.focused
	if c.micMuted == want {
		return
	}
	c.driver.SetMicrophoneMute(want)
	c.micMuted = want
}
