package mode

import (
	"callaudio/internal/audio"
	"callaudio/internal/calls"
)

// transition applies msg to the current state and reports whether the
// (state, message) pair is defined. Defined pairs may still be no-ops.
func (c *Coordinator) transition(msg Message) bool {
	snap := msg.Snapshot
	if msg.Kind == AbandonFocus {
		if c.state == Ringing {
			c.signals.StopRinging()
		}
		c.enterUnfocused()
		return true
	}
	switch c.state {
	case Unfocused:
		return c.fromUnfocused(msg.Kind, snap)
	case Ringing:
		return c.fromRinging(msg.Kind, snap)
	case InCall, InCommunication:
		return c.fromCall(msg.Kind, snap)
	case ToneOrHold:
		return c.fromToneOrHold(msg.Kind, snap)
	}
	return false
}

func (c *Coordinator) fromUnfocused(k Kind, snap calls.Snapshot) bool {
	switch k {
	case NewActiveOrDialingCall:
		c.acquireFocus(audio.FocusVoice)
		c.enterCall(snap.ForegroundIsSoftphone)
	case NewRingingCall:
		c.enterRinging()
	case NewHoldingCall, TonePlaybackStarted:
		c.enterToneOrHold()
	case TonePlaybackStopped, NoMoreActiveOrDialingCalls, NoMoreRingingCalls,
		NoMoreHoldingCalls, ForegroundSoftphoneModeChanged:
		// nothing held, nothing to undo
	default:
		return false
	}
	return true
}

func (c *Coordinator) fromRinging(k Kind, snap calls.Snapshot) bool {
	switch k {
	case NewActiveOrDialingCall:
		// Answered: the ring focus is handed to the call.
		c.signals.StopRinging()
		c.enterCall(snap.ForegroundIsSoftphone)
	case NoMoreRingingCalls:
		// The message wins over a snapshot that still lists a ringing call.
		snap.HasRinging = false
		c.signals.StopRinging()
		c.settle(snap)
	case NewRingingCall, NewHoldingCall, NoMoreActiveOrDialingCalls, NoMoreHoldingCalls,
		TonePlaybackStarted, TonePlaybackStopped, ForegroundSoftphoneModeChanged:
	default:
		return false
	}
	return true
}

func (c *Coordinator) fromCall(k Kind, snap calls.Snapshot) bool {
	switch k {
	case NewRingingCall:
		if snap.HasActiveOrDialing || snap.HasHolding {
			c.startCallWaiting()
		}
	case NoMoreRingingCalls:
		c.stopCallWaiting()
	case NoMoreActiveOrDialingCalls:
		snap.HasActiveOrDialing = false
		c.settle(snap)
	case ForegroundSoftphoneModeChanged:
		want := InCall
		if snap.ForegroundIsSoftphone {
			want = InCommunication
		}
		if want != c.state {
			c.acquireFocus(audio.FocusVoice)
			c.enterCall(snap.ForegroundIsSoftphone)
		}
	case NewActiveOrDialingCall, NewHoldingCall, NoMoreHoldingCalls,
		TonePlaybackStarted, TonePlaybackStopped:
	default:
		return false
	}
	return true
}

func (c *Coordinator) fromToneOrHold(k Kind, snap calls.Snapshot) bool {
	switch k {
	case NewActiveOrDialingCall:
		c.stopCallWaiting()
		c.enterCall(snap.ForegroundIsSoftphone)
	case NewRingingCall:
		if snap.HasHolding {
			c.startCallWaiting()
			break
		}
		c.enterRinging()
	case NoMoreRingingCalls:
		c.stopCallWaiting()
	case TonePlaybackStopped:
		snap.TonePlaying = false
		c.settle(snap)
	case NoMoreHoldingCalls:
		snap.HasHolding = false
		c.settle(snap)
	case NoMoreActiveOrDialingCalls, NewHoldingCall, TonePlaybackStarted,
		ForegroundSoftphoneModeChanged:
	default:
		return false
	}
	return true
}

// settle picks the next state after a call or tone went away.
// Guards are checked in order: active, tone, holding, ringing, idle.
func (c *Coordinator) settle(snap calls.Snapshot) {
	switch {
	case snap.HasActiveOrDialing:
		if c.state == Ringing || c.state == ToneOrHold {
			c.enterCall(snap.ForegroundIsSoftphone)
		}
	case snap.TonePlaying, snap.HasHolding:
		if c.state != ToneOrHold {
			c.enterToneOrHold()
		}
	case snap.HasRinging:
		if c.state != Ringing {
			c.stopCallWaiting()
			c.enterRinging()
		}
	default:
		c.enterUnfocused()
	}
}

// enterCall switches to a call mode. Ring focus taken for an answered call
// becomes voice focus without another driver request.
func (c *Coordinator) enterCall(softphone bool) {
	if c.focus == audio.FocusRing {
		c.setFocus(audio.FocusVoice)
	}
	if softphone {
		c.state = InCommunication
		c.setMode(audio.ModeInCommunication)
		return
	}
	c.state = InCall
	c.setMode(audio.ModeInCall)
}

func (c *Coordinator) enterRinging() {
	c.acquireFocus(audio.FocusRing)
	c.setMode(audio.ModeRingtone)
	c.signals.StartRinging()
	c.state = Ringing
}

// enterToneOrHold keeps focus and the current call mode. A mode that is not a
// call mode is replaced by in-call.
func (c *Coordinator) enterToneOrHold() {
	if c.focus != audio.FocusVoice {
		c.acquireFocus(audio.FocusVoice)
	}
	if c.lastMode == audio.ModeNormal || c.lastMode == audio.ModeRingtone {
		c.setMode(audio.ModeInCall)
	}
	c.state = ToneOrHold
}

func (c *Coordinator) enterUnfocused() {
	c.stopCallWaiting()
	c.releaseFocus()
	c.setMode(audio.ModeNormal)
	c.state = Unfocused
}
