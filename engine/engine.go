package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gi/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/technique"
	"github.com/Carmen-Shannon/oxy-gi/engine/window"
)

// ErrNoTechnique is returned by Frame when no render technique or queue was configured.
var ErrNoTechnique = errors.New("engine: no render technique")

// engine implements the Engine interface.
// Coordinates the tick and render goroutines with the window message loop.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window    window.Window
	technique technique.RenderTechnique
	queue     gpu.Queue

	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	// frameMu serialises Frame with the tick callback's scene edits.
	frameMu sync.Mutex
	frame   uint64
	waits   gpu.SemaphoreWaits

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It drives a RenderTechnique frame by frame and manages the tick loop and window.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, or nil when running headless
	Window() window.Window

	// Technique returns the render technique driven by the render loop.
	//
	// Returns:
	//   - technique.RenderTechnique: the technique, or nil
	Technique() technique.RenderTechnique

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, light animation and GI type changes.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetScene replaces the scene rendered by the technique.
	//
	// Parameters:
	//   - s: the Scene to render
	SetScene(s scene.Scene)

	// Scene returns the scene rendered by the technique.
	//
	// Returns:
	//   - scene.Scene: the scene, or nil
	Scene() scene.Scene

	// Frame renders one frame: CPU update, GPU update, PreRender and Render. The waits
	// of the previous frame's main graph are honoured by the first submission.
	//
	// Parameters:
	//   - dt: the delta time in seconds
	//
	// Returns:
	//   - error: error if the technique fails to update or submit
	Frame(dt float32) error

	// FrameCount returns the number of frames rendered by Frame.
	//
	// Returns:
	//   - uint64: the frame count
	FrameCount() uint64

	// Tick runs the tick callback once under the frame lock.
	//
	// Parameters:
	//   - dt: the delta time in seconds
	Tick(dt float32)

	// Run starts the engine loops and the window message loop (blocks until window closes).
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (technique, window, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	e.applyProfiling()

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.technique == nil || height == 0 {
				return
			}
			if c := e.technique.Camera(); c != nil {
				c.SetAspect(float32(width) / float32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Technique() technique.RenderTechnique {
	return e.technique
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) Tick(dt float32) {
	if e.tickCallback == nil {
		return
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.tickCallback(dt)
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.Frame(dt); err != nil {
				log.Printf("[Engine] frame %d failed: %v", e.FrameCount(), err)
				e.signalQuit()
				return
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

func (e *engine) Frame(dt float32) error {
	if e.technique == nil || e.queue == nil {
		return ErrNoTechnique
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	e.frame++
	e.technique.UpdateCPU(&scene.CpuUpdater{Frame: e.frame, DeltaTime: dt})
	if err := e.technique.UpdateGPU(&scene.GpuUpdater{Frame: e.frame, Queue: e.queue}); err != nil {
		return fmt.Errorf("failed to update frame %d: %w", e.frame, err)
	}
	waits, err := e.technique.PreRender(e.waits, e.queue)
	if err != nil {
		return fmt.Errorf("failed to prepare frame %d: %w", e.frame, err)
	}
	if e.waits, err = e.technique.Render(waits, e.queue); err != nil {
		return fmt.Errorf("failed to render frame %d: %w", e.frame, err)
	}
	return nil
}

func (e *engine) FrameCount() uint64 {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.frame
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
	e.applyProfiling()
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
	e.applyProfiling()
}

func (e *engine) applyProfiling() {
	if e.technique != nil {
		e.technique.Profiler().SetQuiet(!e.profilingEnabled)
	}
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) SetScene(s scene.Scene) {
	if e.technique != nil {
		e.technique.SetScene(s)
	}
}

func (e *engine) Scene() scene.Scene {
	if e.technique == nil {
		return nil
	}
	return e.technique.Scene()
}
