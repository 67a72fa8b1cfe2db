package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"pelco-remote/internal/app"
	"pelco-remote/internal/pelco"
	"pelco-remote/internal/serialport"
)

type command struct {
	Name        string
	Usage       string
	Description string
	MinArgs     int
	MaxArgs     int
	Handler     func(r *app.Rig, out io.Writer, args []string) error
}

var errUsage = errors.New("bad arguments")

// frame adapts a factory method without arguments.
func frame(build func(*pelco.Factory) (pelco.Frame, error)) func(*app.Rig, io.Writer, []string) error {
	return func(r *app.Rig, _ io.Writer, _ []string) error {
		f, err := build(r.Factory)
		if err != nil {
			return err
		}
		return r.Camera.Do(f)
	}
}

// frameInt adapts a factory method taking one integer argument.
func frameInt(build func(*pelco.Factory, int) (pelco.Frame, error)) func(*app.Rig, io.Writer, []string) error {
	return func(r *app.Rig, _ io.Writer, args []string) error {
		n, err := atoi(args[0])
		if err != nil {
			return err
		}
		f, err := build(r.Factory, n)
		if err != nil {
			return err
		}
		return r.Camera.Do(f)
	}
}

func atoi(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return int(n), nil
}

func onOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "auto", "1":
		return true, nil
	case "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q: want on or off", s)
}

// toggle adapts the camera mode opcodes. on and off are the device values
// for the two states.
func toggle(build func(*pelco.Factory, byte) (pelco.Frame, error), on, off byte) func(*app.Rig, io.Writer, []string) error {
	return func(r *app.Rig, _ io.Writer, args []string) error {
		enabled, err := onOff(args[0])
		if err != nil {
			return err
		}
		mode := off
		if enabled {
			mode = on
		}
		f, err := build(r.Factory, mode)
		if err != nil {
			return err
		}
		return r.Camera.Do(f)
	}
}

var cliCommands = map[string]command{
	"stop": {"stop", "stop", "stop all motion", 0, 0, frame((*pelco.Factory).Stop)},
	"pan":  {"pan", "pan <speed>", "pan, negative is left", 1, 1, frameInt((*pelco.Factory).Pan)},
	"tilt": {"tilt", "tilt <speed>", "tilt, negative is down", 1, 1, frameInt((*pelco.Factory).Tilt)},
	"move": {"move", "move <pan> <tilt>", "diagonal move", 2, 2, func(r *app.Rig, _ io.Writer, args []string) error {
		pan, err := atoi(args[0])
		if err != nil {
			return err
		}
		tilt, err := atoi(args[1])
		if err != nil {
			return err
		}
		return r.Camera.Move(pan, tilt)
	}},
	"zoom": {"zoom", "zoom in|out", "zoom until stop", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		switch args[0] {
		case "in", "tele":
			return r.Camera.Zoom(1)
		case "out", "wide":
			return r.Camera.Zoom(-1)
		}
		return errUsage
	}},
	"focus": {"focus", "focus near|far", "focus until stop", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		switch args[0] {
		case "near":
			return frame((*pelco.Factory).FocusNear)(r, nil, nil)
		case "far":
			return frame((*pelco.Factory).FocusFar)(r, nil, nil)
		}
		return errUsage
	}},
	"iris": {"iris", "iris open|close", "iris until stop", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		switch args[0] {
		case "open":
			return frame((*pelco.Factory).IrisOpen)(r, nil, nil)
		case "close":
			return frame((*pelco.Factory).IrisClose)(r, nil, nil)
		}
		return errUsage
	}},
	"camera": {"camera", "camera on|off", "camera power", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		if on {
			return frame((*pelco.Factory).CameraOn)(r, nil, nil)
		}
		return frame((*pelco.Factory).CameraOff)(r, nil, nil)
	}},
	"scan": {"scan", "scan auto|manual", "scan mode", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		switch args[0] {
		case "auto":
			return frame((*pelco.Factory).ScanAuto)(r, nil, nil)
		case "manual":
			return frame((*pelco.Factory).ScanManual)(r, nil, nil)
		}
		return errUsage
	}},
	"preset": {"preset", "preset go|set|clear <id>", "preset recall, store or delete", 2, 2, func(r *app.Rig, _ io.Writer, args []string) error {
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		switch args[0] {
		case "go":
			return r.Camera.GoToPreset(id)
		case "set":
			return r.Camera.SetPreset(id)
		case "clear":
			return r.Camera.ClearPreset(id)
		}
		return errUsage
	}},
	"aux": {"aux", "aux on|off <id>", "auxiliary relay", 2, 2, func(r *app.Rig, _ io.Writer, args []string) error {
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		id, err := atoi(args[1])
		if err != nil {
			return err
		}
		if on {
			return r.Camera.SetAux(id)
		}
		return r.Camera.ClearAux(id)
	}},
	"pattern": {"pattern", "pattern start|end|run <id>", "record or replay a pattern", 2, 2, func(r *app.Rig, w io.Writer, args []string) error {
		build := map[string]func(*pelco.Factory, int) (pelco.Frame, error){
			"start": (*pelco.Factory).PatternStart,
			"end":   (*pelco.Factory).PatternEnd,
			"run":   (*pelco.Factory).RunPattern,
		}[args[0]]
		if build == nil {
			return errUsage
		}
		return frameInt(build)(r, w, args[1:])
	}},
	"zonescan": {"zonescan", "zonescan on|off", "zone scanning", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		if on {
			return frame((*pelco.Factory).ZoneScanOn)(r, nil, nil)
		}
		return frame((*pelco.Factory).ZoneScanOff)(r, nil, nil)
	}},
	"flip":        {"flip", "flip", "turn 180 degrees", 0, 0, frame((*pelco.Factory).Flip)},
	"zero":        {"zero", "zero", "go to zero pan", 0, 0, frame((*pelco.Factory).GoToZeroPan)},
	"setzero":     {"setzero", "setzero", "store the current position as zero", 0, 0, frame((*pelco.Factory).SetZeroPosition)},
	"reset":       {"reset", "reset", "remote reset", 0, 0, frame((*pelco.Factory).RemoteReset)},
	"defaults":    {"defaults", "defaults", "reset camera defaults", 0, 0, frame((*pelco.Factory).ResetCameraDefaults)},
	"zoomspeed":   {"zoomspeed", "zoomspeed <0-3>", "zoom speed", 1, 1, frameInt((*pelco.Factory).SetZoomSpeed)},
	"focusspeed":  {"focusspeed", "focusspeed <0-3>", "focus speed", 1, 1, frameInt((*pelco.Factory).SetFocusSpeed)},
	"shutter":     {"shutter", "shutter <speed>", "shutter speed", 1, 1, frameInt((*pelco.Factory).SetShutterSpeed)},
	"goto-pan":    {"goto-pan", "goto-pan <centidegrees>", "absolute pan", 1, 1, frameInt((*pelco.Factory).SetPanPosition)},
	"goto-tilt":   {"goto-tilt", "goto-tilt <centidegrees>", "absolute tilt", 1, 1, frameInt((*pelco.Factory).SetTiltPosition)},
	"goto-zoom":   {"goto-zoom", "goto-zoom <position>", "absolute zoom", 1, 1, frameInt((*pelco.Factory).SetZoomPosition)},
	"ack":         {"ack", "ack <alarm>", "acknowledge an alarm", 1, 1, frameInt((*pelco.Factory).AlarmAck)},
	"clearscreen": {"clearscreen", "clearscreen", "clear the on-screen display", 0, 0, frame((*pelco.Factory).ClearScreen)},
	"autofocus":   {"autofocus", "autofocus on|off", "auto focus", 1, 1, toggle((*pelco.Factory).AutoFocus, pelco.AutoFocusAuto, pelco.AutoFocusOff)},
	"autoiris":    {"autoiris", "autoiris on|off", "auto iris", 1, 1, toggle((*pelco.Factory).AutoIris, pelco.AutoIrisAuto, pelco.AutoIrisOff)},
	"agc":         {"agc", "agc on|off", "automatic gain control", 1, 1, toggle((*pelco.Factory).AGC, pelco.AGCAuto, pelco.AGCOff)},
	"backlight":   {"backlight", "backlight on|off", "backlight compensation", 1, 1, toggle((*pelco.Factory).Backlight, pelco.BacklightOn, pelco.BacklightOff)},
	"awb":         {"awb", "awb on|off", "auto white balance", 1, 1, toggle((*pelco.Factory).AutoWhiteBalance, pelco.WhiteBalanceOn, pelco.WhiteBalanceOff)},
	"pos": {"pos", "pos", "read pan, tilt and zoom", 0, 0, func(r *app.Rig, w io.Writer, _ []string) error {
		pan, err := r.Camera.QueryPanPosition()
		if err != nil {
			return err
		}
		tilt, err := r.Camera.QueryTiltPosition()
		if err != nil {
			return err
		}
		zoom, err := r.Camera.QueryZoomPosition()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pan %.2f tilt %.2f zoom %d\n", pan, tilt, zoom)
		return nil
	}},
	"mag": {"mag", "mag", "read the magnification", 0, 0, func(r *app.Rig, w io.Writer, _ []string) error {
		m, err := r.Camera.QueryMagnification()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "x%.2f\n", m)
		return nil
	}},
	"type": {"type", "type", "read the device type", 0, 0, func(r *app.Rig, w io.Writer, _ []string) error {
		v, err := r.Camera.QueryDeviceType()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "device type 0x%04X\n", v)
		return nil
	}},
	"diag": {"diag", "diag", "read diagnostics", 0, 0, func(r *app.Rig, w io.Writer, _ []string) error {
		v, err := r.Camera.QueryDiagnostics()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "diagnostics 0x%04X\n", v)
		return nil
	}},
	"version": {"version", "version [build]", "read the firmware version", 0, 1, func(r *app.Rig, w io.Writer, args []string) error {
		sub := pelco.VersionSoftware
		if len(args) == 1 && args[0] == "build" {
			sub = pelco.VersionBuild
		}
		v, err := r.Camera.Version(sub)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "version 0x%04X\n", v)
		return nil
	}},
	"raw": {"raw", "raw <hex frame>", "send a 7-byte frame and print the reply", 1, 7, func(r *app.Rig, w io.Writer, args []string) error {
		b, err := hex.DecodeString(strings.Join(args, ""))
		if err != nil {
			return err
		}
		f, err := pelco.DecodeCommand(b)
		if err != nil {
			return err
		}
		if expected, ok := pelco.ReplyOpcode(f.Opcode()); ok {
			reply, err := r.Session.TransactExtended(f, expected)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, reply)
			return nil
		}
		reply, err := r.Session.TransactGeneral(f)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, reply)
		return nil
	}},
	"query": {"query", "query <type>", "broadcast a device query", 1, 1, func(r *app.Rig, _ io.Writer, args []string) error {
		n, err := atoi(args[0])
		if err != nil {
			return err
		}
		f, err := r.Factory.Query(n)
		if err != nil {
			return err
		}
		return r.Session.Query(f)
	}},
	"ports": {"ports", "ports", "list serial adapters", 0, 0, func(_ *app.Rig, w io.Writer, _ []string) error {
		adapters, err := serialport.List()
		if err != nil {
			return err
		}
		for _, a := range adapters {
			fmt.Fprintf(w, "%-20s %s\n", a.Name, a.Product)
		}
		return nil
	}},
}

func commandNames() []string {
	names := make([]string, 0, len(cliCommands))
	for name := range cliCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runCommand(r *app.Rig, out io.Writer, name string, args []string) error {
	cmd, ok := cliCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) < cmd.MinArgs || len(args) > cmd.MaxArgs {
		return fmt.Errorf("usage: %s", cmd.Usage)
	}
	if err := cmd.Handler(r, out, args); err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("usage: %s", cmd.Usage)
		}
		return err
	}
	return nil
}
