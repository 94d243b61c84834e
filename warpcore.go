// This file is part of Warpcore.
//
// Warpcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Warpcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Warpcore.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/jetsetilly/warpcore/compositor"
	"github.com/jetsetilly/warpcore/display/sdldisplay"
	"github.com/jetsetilly/warpcore/gpu/opengl"
	"github.com/jetsetilly/warpcore/logger"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/modalflag"
	"github.com/jetsetilly/warpcore/performance"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/scene"
	"github.com/jetsetilly/warpcore/statsview"
	"github.com/jetsetilly/warpcore/timing"
	"github.com/jetsetilly/warpcore/version"
)

type stateReq = string

const (
	// main thread should end as soon as possible.
	//
	// takes optional int argument, indicating the status code.
	reqQuit stateReq = "QUIT"
)

type stateRequest struct {
	req  stateReq
	args interface{}
}

// Servicer instances are created, serviced and destroyed in the main
// thread. SDL requires window event handling (including creation) to occur
// there.
type Servicer interface {
	// cleanup resources used by the window
	Destroy(io.Writer)

	// Service() should not pause or loop longer than necessary (if at all).
	// It MUST ONLY be called as part of a larger loop from the main thread.
	// It should service all window events that are not safe to do in
	// sub-threads.
	Service()
}

// communication between the main() function and the launch() function. this
// is required because SDL requires window event handling (including
// creation) to occur on the main thread.
type mainSync struct {
	state   chan stateRequest
	creator chan func() (Servicer, error)

	// the result of creator will be returned on either of these two channels.
	creation      chan Servicer
	creationError chan error
}

// #mainthread
func main() {
	sync := &mainSync{
		state:         make(chan stateRequest),
		creator:       make(chan func() (Servicer, error)),
		creation:      make(chan Servicer),
		creationError: make(chan error),
	}

	// the value to use with os.Exit(). can be changed with reqQuit
	// stateRequest
	exitVal := 0

	// #ctrlc handler
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt)

	// launch program as a go routine. further communication is through the
	// mainSync instance
	go launch(sync)

	done := false
	var svc Servicer
	for !done {
		select {
		case <-intChan:
			fmt.Println("\r")
			done = true

		case creator := <-sync.creator:
			var err error

			if svc != nil {
				svc.Destroy(os.Stderr)
			}

			svc, err = creator()
			if err != nil {
				sync.creationError <- err
				svc = nil
			} else {
				sync.creation <- svc
			}

		case state := <-sync.state:
			switch state.req {
			case reqQuit:
				done = true
				if svc != nil {
					svc.Destroy(os.Stderr)
				}

				if state.args != nil {
					if v, ok := state.args.(int); ok {
						exitVal = v
					} else {
						panic(fmt.Sprintf("cannot convert %s arguments into int", reqQuit))
					}
				}
			}

		default:
			if svc != nil {
				svc.Service()
			}
		}
	}

	fmt.Print("\r")
	os.Exit(exitVal)
}

// launch is called from main() as a goroutine. uses mainSync instance to
// indicate window creation and to quit.
func launch(sync *mainSync) {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.NewMode()
	md.AddSubModes("RUN", "PERFORMANCE", "VERSION")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		sync.state <- stateRequest{req: reqQuit}
		return

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		sync.state <- stateRequest{req: reqQuit, args: 10}
		return
	}

	switch md.Mode() {
	case "RUN":
		err = run(md, sync)

	case "PERFORMANCE":
		err = perform(md)

	case "VERSION":
		ver, rev, _ := version.Version()
		fmt.Printf("%s %s (%s)\n", version.ApplicationName, ver, rev)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		sync.state <- stateRequest{req: reqQuit, args: 20}
		return
	}

	sync.state <- stateRequest{req: reqQuit}
}

// window wraps the SDL display for servicing on the main thread.
type window struct {
	dsp *sdldisplay.Display

	// a pulse is sent on window close or ESC. buffered so that Service()
	// never blocks
	quit chan bool
}

func (win *window) Destroy(_ io.Writer) {
	win.dsp.Destroy()
}

func (win *window) Service() {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			win.requestQuit()

		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYUP && ev.Keysym.Sym == sdl.K_ESCAPE {
				win.requestQuit()
			}
		}
	}
}

func (win *window) requestQuit() {
	select {
	case win.quit <- true:
	default:
	}
}

func run(md *modalflag.Modes, sync *mainSync) error {
	md.NewMode()

	width := md.AddInt("width", 1600, "window width")
	height := md.AddInt("height", 800, "window height")
	eyeSize := md.AddInt("eyesize", 1024, "eye texture dimensions")
	sway := md.AddFloat64("sway", 0.3, "amplitude of the synthetic head sway (radians)")
	showOverlay := md.AddBool("overlay", true, "show pacing telemetry overlay")
	log := md.AddBool("log", false, "echo debugging log to stdout")
	stats := md.AddBool("statsview", false, "launch statsview server")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	// set debugging log echo
	if *log {
		logger.SetEcho(os.Stdout, true)
	} else {
		logger.SetEcho(nil, false)
	}

	if *stats {
		statsview.Launch(os.Stdout)
	}

	// create the window on the main thread
	sync.creator <- func() (Servicer, error) {
		ver, _, _ := version.Version()
		dsp, err := sdldisplay.NewDisplay(
			fmt.Sprintf("%s (%s)", version.ApplicationName, ver),
			int32(*width), int32(*height))
		if err != nil {
			return nil, err
		}
		return &window{dsp: dsp, quit: make(chan bool, 1)}, nil
	}

	var win *window
	select {
	case svc := <-sync.creation:
		win = svc.(*window)
	case err := <-sync.creationError:
		return err
	}
	dsp := win.dsp

	mbx, err := mailbox.NewMailbox(dsp.RefreshPeriod())
	if err != nil {
		return err
	}
	prd, err := timing.NewPredictor(dsp.RefreshPeriod())
	if err != nil {
		return err
	}

	// a synthetic head sway stands in for a real tracker
	poses := pose.Oscillator{
		Amplitude:    float32(*sway),
		PeriodMicros: 4000000,
	}

	config := scene.DefaultConfig()
	config.Width = *eyeSize
	config.Height = *eyeSize

	cmpDone := make(chan error)
	scnDone := make(chan error)
	var cmp *compositor.Compositor
	cmpReady := make(chan error)

	// the compositor thread owns the presentation context. the renderer and
	// the overlay must be created there
	go func() {
		err := dsp.MakePresentationContextCurrent()
		if err != nil {
			cmpReady <- err
			return
		}

		warpRend := opengl.NewRenderer(config.FOV, 1.0)
		defer warpRend.Destroy()
		w, h := dsp.DrawableSize()
		warpRend.Resize(w, h)

		var rend compositor.Renderer = warpRend
		var ovlRend *overlayRenderer
		if *showOverlay {
			ovlRend, err = newOverlayRenderer(warpRend, dsp, mbx)
			if err != nil {
				cmpReady <- err
				return
			}
			defer ovlRend.destroy()
			rend = ovlRend
		}

		cmp, err = compositor.NewCompositor(mbx, prd, dsp, poses, rend)
		if err != nil {
			cmpReady <- err
			return
		}
		if ovlRend != nil {
			ovlRend.cmp = cmp
		}
		cmpReady <- nil

		cmpDone <- cmp.Run()
	}()

	if err := <-cmpReady; err != nil {
		return err
	}

	// the scene thread owns the shared context. the backend must be created
	// there
	var scn *scene.Scene
	scnReady := make(chan error)
	go func() {
		err := dsp.MakeSceneContextCurrent()
		if err != nil {
			scnReady <- err
			return
		}

		backend := opengl.NewBackend()
		defer backend.Destroy()

		scn, err = scene.NewScene(config, mbx, prd, backend, poses)
		if err != nil {
			scnReady <- err
			return
		}
		scnReady <- nil

		scnDone <- scn.Run()
	}()

	if err := <-scnReady; err != nil {
		cmp.End()
		<-cmpDone
		return err
	}

	// window close and ESC end the loops. compositor shutdown force-releases
	// a blocked producer so the joins below cannot deadlock
	var runErr error
	select {
	case <-win.quit:
		scn.End()
		cmp.End()
		runErr = <-cmpDone
	case runErr = <-cmpDone:
		scn.End()
	}

	if errScn := <-scnDone; runErr == nil {
		runErr = errScn
	}

	return runErr
}

func perform(md *modalflag.Modes) error {
	md.NewMode()

	profile := md.AddString("profile", "none", "run performance check with profiling: CPU, MEM, TRACE, ALL (comma sep)")
	duration := md.AddString("duration", "5s", "run duration (excluding lead time)")
	hz := md.AddInt("hz", 60, "display refresh rate to mimic")
	uncapped := md.AddBool("uncapped", false, "swap as fast as possible")
	log := md.AddBool("log", false, "echo debugging log to stdout")
	stats := md.AddBool("statsview", false, "launch statsview server")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if *log {
		logger.SetEcho(os.Stdout, true)
	} else {
		logger.SetEcho(nil, false)
	}

	if *stats {
		statsview.Launch(os.Stdout)
	}

	prof, err := performance.ParseProfileString(*profile)
	if err != nil {
		return err
	}

	return performance.Check(os.Stdout, prof, *hz, *uncapped, *duration)
}
