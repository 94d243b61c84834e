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

package performance

import (
	"fmt"
	"io"
	"time"

	"github.com/jetsetilly/warpcore/compositor"
	"github.com/jetsetilly/warpcore/mailbox"
	"github.com/jetsetilly/warpcore/pose"
	"github.com/jetsetilly/warpcore/scene"
	"github.com/jetsetilly/warpcore/timing"
)

// amount of time for the pipeline to settle before measurement begins.
const leadtime = 2 * time.Second

// Check the performance of the frame pipeline without a GPU or a window.
//
// The pipeline will run for the specified duration and will create a cpu,
// memory profile or trace (or a combination of those) as defined by the
// Profile argument. When uncapped, the headless display swaps as fast as the
// pipeline can drive it instead of mimicking a vsynced swap.
func Check(output io.Writer, profile Profile, refreshRate int, uncapped bool, duration string) error {
	if refreshRate <= 0 {
		return fmt.Errorf("performance: refresh rate must be positive (%d)", refreshRate)
	}
	refreshPeriod := 1000000 / int64(refreshRate)

	dur, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	mbx, err := mailbox.NewMailbox(refreshPeriod)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	prd, err := timing.NewPredictor(refreshPeriod)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	dsp := &headlessDisplay{
		refreshPeriod: refreshPeriod,
		capped:        !uncapped,
	}

	// a slow head sway keeps the pose prediction path honest
	poses := pose.Oscillator{
		Amplitude:    0.3,
		PeriodMicros: 4000000,
	}

	scn, err := scene.NewScene(scene.DefaultConfig(), mbx, prd, &headlessBackend{}, poses)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	cmp, err := compositor.NewCompositor(mbx, prd, dsp, poses, nullRenderer{})
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	cmpDone := make(chan error)
	scnDone := make(chan error)

	var startPresented int64
	var endPresented int64

	runner := func() error {
		go func() {
			cmpDone <- cmp.Run()
		}()
		go func() {
			scnDone <- scn.Run()
		}()

		// leadtime allows the refresh cadence to settle before counting
		time.Sleep(leadtime)
		startPresented = cmp.Telemetry().Presented

		time.Sleep(dur)
		endPresented = cmp.Telemetry().Presented

		// compositor shutdown force-releases the producer
		cmp.End()
		scn.End()

		if err := <-cmpDone; err != nil {
			return err
		}
		return <-scnDone
	}

	err = RunProfiler(profile, "performance", runner)
	if err != nil {
		return fmt.Errorf("performance: %w", err)
	}

	numFrames := endPresented - startPresented
	fps, accuracy := CalcFPS(int(numFrames), dur.Seconds(), refreshRate)
	output.Write([]byte(fmt.Sprintf("%.2f fps (%d frames in %.2f seconds) %.1f%%\n", fps, numFrames, dur.Seconds(), accuracy)))

	return nil
}

// CalcFPS takes the number of frames and duration (in seconds) and returns
// the frames-per-second and the accuracy of that value as a percentage of
// the display refresh rate.
func CalcFPS(numFrames int, duration float64, refreshRate int) (fps float64, accuracy float64) {
	fps = float64(numFrames) / duration
	accuracy = 100 * float64(numFrames) / (duration * float64(refreshRate))
	return fps, accuracy
}
