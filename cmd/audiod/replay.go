package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"callaudio/internal/audio"
	"callaudio/internal/calls"
	"callaudio/internal/engine"
	"callaudio/internal/hardware"
	"callaudio/internal/mode"
	"callaudio/internal/route"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a call scenario against recorded hardware",
	Long: `Replay feeds a YAML scenario through the session tracker and both
coordinators with an in-memory hardware recorder, then prints every
hardware command, every published audio state and the final status.

Scenario format:
  device:
    has_earpiece: true
    wired_headset: false
    bluetooth: true
  steps:
    - add: {id: c1, state: ringing}
    - state: {id: c1, from: ringing, to: active}
    - route: switch_speaker
    - route: bluetooth_audio_connected   # connected/disconnected token defaults to the last requested
    - tone: start
    - foreground: c1
    - remove: c1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("file")
		if err != nil {
			return fmt.Errorf("failed to read 'file' flag: %w", err)
		}
		if path == "" {
			return errors.New("scenario file is required, use -f flag")
		}
		sc, err := loadScenario(path)
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		return runScenario(cmd.Context(), sc, cmd.OutOrStdout(), verbose)
	},
}

func init() {
	replayCmd.Flags().StringP("file", "f", "", "scenario YAML file")
	replayCmd.Flags().BoolP("verbose", "v", false, "log coordinator decisions to stderr")
}

type scenario struct {
	Device struct {
		HasEarpiece  *bool `yaml:"has_earpiece"`
		WiredHeadset bool  `yaml:"wired_headset"`
		Bluetooth    bool  `yaml:"bluetooth"`
	} `yaml:"device"`
	Steps []step `yaml:"steps"`
}

type step struct {
	Add        *calls.Call `yaml:"add"`
	State      *stateStep  `yaml:"state"`
	Remove     string      `yaml:"remove"`
	Foreground *string     `yaml:"foreground"`
	Tone       string      `yaml:"tone"`
	Route      *route.Kind `yaml:"route"`
	Token      uint64      `yaml:"token"`
}

type stateStep struct {
	ID   string      `yaml:"id"`
	From calls.State `yaml:"from"`
	To   calls.State `yaml:"to"`
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (scenario, error) {
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return scenario{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i, s := range sc.Steps {
		if err := s.validate(); err != nil {
			return scenario{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return sc, nil
}

func (s step) validate() error {
	set := 0
	for _, ok := range []bool{s.Add != nil, s.State != nil, s.Remove != "", s.Foreground != nil, s.Tone != "", s.Route != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one action per step")
	}
	if s.Tone != "" && s.Tone != "start" && s.Tone != "stop" {
		return fmt.Errorf("tone must be start or stop, got %q", s.Tone)
	}
	if s.Route != nil && *s.Route == route.FocusChanged {
		return errors.New("focus_changed is sent by the mode coordinator only")
	}
	return nil
}

type replayResult struct {
	Commands  []hardware.Command     `json:"commands"`
	Published []audio.CallAudioState `json:"published"`
	Final     engine.Status          `json:"final"`
}

func runScenario(ctx context.Context, sc scenario, out io.Writer, verbose bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	rec := hardware.NewRecorder()
	rec.SetWiredPluggedIn(sc.Device.WiredHeadset)
	rec.SetWirelessAvailable(sc.Device.Bluetooth)
	hasEarpiece := true
	if sc.Device.HasEarpiece != nil {
		hasEarpiece = *sc.Device.HasEarpiece
	}

	var res replayResult
	eng, err := engine.New(engine.Options{
		Driver:      rec,
		Tones:       rec,
		Wireless:    rec,
		Wired:       rec,
		HasEarpiece: hasEarpiece,
		Observers: []mode.Observer{mode.ObserverFunc(func(t mode.Transition) {
			fmt.Fprintf(out, "  mode %s -> %s (%s)\n", t.From, t.To, t.Trigger)
		})},
		Listeners: []route.Listener{route.ListenerFunc(func(_, next audio.CallAudioState) {
			res.Published = append(res.Published, next)
			fmt.Fprintf(out, "  published %s\n", next)
		})},
		Logger: log,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	for i, s := range sc.Steps {
		fmt.Fprintf(out, "step %d: %s\n", i+1, s)
		before := len(rec.Commands())
		if err := applyStep(eng, rec, s); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		settleCtx, stop := context.WithTimeout(ctx, 2*time.Second)
		err := eng.Settle(settleCtx)
		stop()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		for _, c := range rec.Commands()[before:] {
			fmt.Fprintf(out, "  hw %s\n", c)
		}
	}

	statusCtx, stop := context.WithTimeout(ctx, 2*time.Second)
	defer stop()
	res.Final, err = eng.Status(statusCtx)
	if err != nil {
		return err
	}
	res.Commands = rec.Commands()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func applyStep(eng *engine.Engine, rec *hardware.Recorder, s step) error {
	t := eng.Tracker
	switch {
	case s.Add != nil:
		return t.OnCallAdded(*s.Add)
	case s.State != nil:
		return t.OnCallStateChanged(s.State.ID, s.State.From, s.State.To)
	case s.Remove != "":
		return t.OnCallRemoved(s.Remove)
	case s.Foreground != nil:
		return t.OnForegroundCallChanged(*s.Foreground)
	case s.Tone == "start":
		t.OnTonePlaybackStarted()
	case s.Tone == "stop":
		t.OnTonePlaybackStopped()
	case s.Route != nil:
		msg := route.Message{Kind: *s.Route, Token: s.Token}
		switch msg.Kind {
		case route.ConnectWiredHeadset:
			rec.SetWiredPluggedIn(true)
		case route.DisconnectWiredHeadset:
			rec.SetWiredPluggedIn(false)
		case route.ConnectBluetooth:
			rec.SetWirelessAvailable(true)
		case route.DisconnectBluetooth:
			rec.SetWirelessAvailable(false)
		case route.BluetoothAudioConnected, route.BluetoothAudioDisconnected:
			if msg.Token == 0 {
				msg.Token = lastConnectToken(rec)
			}
		}
		eng.Route.Send(msg)
	}
	return nil
}

func lastConnectToken(rec *hardware.Recorder) uint64 {
	cmds := rec.Commands()
	for i := len(cmds) - 1; i >= 0; i-- {
		if cmds[i].Kind == hardware.CmdConnectAudio {
			return cmds[i].Token
		}
	}
	return 0
}

func (s step) String() string {
	switch {
	case s.Add != nil:
		return fmt.Sprintf("add %s (%s)", s.Add.ID, s.Add.State)
	case s.State != nil:
		return fmt.Sprintf("state %s %s -> %s", s.State.ID, s.State.From, s.State.To)
	case s.Remove != "":
		return "remove " + s.Remove
	case s.Foreground != nil:
		return fmt.Sprintf("foreground %q", *s.Foreground)
	case s.Tone != "":
		return "tone " + s.Tone
	case s.Route != nil:
		return "route " + s.Route.String()
	}
	return "noop"
}
