package session

// StartRinging and the other mode.Signals methods forward to the tone player
// only when the requested state differs from the current one.

func (t *Tracker) StartRinging() {
	if t.swapTone(&t.ringtoneOn, true) && t.player != nil {
		t.player.StartRingtone()
	}
}

func (t *Tracker) StopRinging() {
	if t.swapTone(&t.ringtoneOn, false) && t.player != nil {
		t.player.StopRingtone()
	}
}

func (t *Tracker) StartCallWaiting() {
	if t.swapTone(&t.callWaitingOn, true) && t.player != nil {
		t.player.StartCallWaiting()
	}
}

func (t *Tracker) StopCallWaiting() {
	if t.swapTone(&t.callWaitingOn, false) && t.player != nil {
		t.player.StopCallWaiting()
	}
}

func (t *Tracker) swapTone(flag *bool, on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if *flag == on {
		return false
	}
	*flag = on
	return true
}

// Tones reports whether the ringtone and the call-waiting tone are playing.
func (t *Tracker) Tones() (ringtone, callWaiting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ringtoneOn, t.callWaitingOn
}
