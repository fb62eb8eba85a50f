// Command oxy-gi opens a window and drives the render technique over a small scene of
// animated lights contributing to the light propagation volumes.
//
// Keys: G cycles the point lights' GI type, 1/2/3 toggle directional/point/spot lights,
// E recaptures the environment, P toggles the profiler, Space pauses the animation.
// Drag with the left mouse button to orbit and scroll to zoom.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"slices"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gi/common"
	"github.com/Carmen-Shannon/oxy-gi/engine"
	"github.com/Carmen-Shannon/oxy-gi/engine/camera"
	"github.com/Carmen-Shannon/oxy-gi/engine/gpu/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-gi/engine/light"
	"github.com/Carmen-Shannon/oxy-gi/engine/scene"
	"github.com/Carmen-Shannon/oxy-gi/engine/technique"
	"github.com/Carmen-Shannon/oxy-gi/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	configPath := flag.String("config", "", "technique configuration file (YAML)")
	debug := flag.Bool("debug", false, "enable debug logging")
	software := flag.Bool("software", false, "force the fallback adapter")
	flag.Parse()

	cfg := technique.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = technique.LoadConfig(*configPath); err != nil {
			log.Fatalf("[Main] %v", err)
		}
	}
	cfg.Debug = cfg.Debug || *debug
	logger := common.NewDefaultLogger("oxy-gi", cfg.Debug)

	// ── Window + Device ─────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle("oxy-gi"),
		window.WithSize(int(cfg.Width), int(cfg.Height)),
	)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
	device, surface, err := wgpu_backend.NewDevice(win.SurfaceDescriptor(),
		wgpu_backend.WithForceSoftwareRenderer(*software),
		wgpu_backend.WithVerbose(cfg.Debug),
	)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
	defer device.Release()
	if surface != nil {
		defer surface.Release()
	}

	// ── Camera ──────────────────────────────────────────────────────────
	orbit := camera.NewOrbitController(
		camera.WithRadius(30),
		camera.WithAngles(0.6, 0.35),
		camera.WithOrbitTarget(mgl32.Vec3{0, 2, 0}),
		camera.WithRadiusBounds(5, 120),
	)
	cam := camera.NewCamera(
		camera.WithFov(float32(50.0*math.Pi/180.0)),
		camera.WithAspect(float32(win.Width())/float32(max(win.Height(), 1))),
		camera.WithNear(0.1),
		camera.WithFar(300),
		camera.WithController(orbit),
	)

	// ── Scene ───────────────────────────────────────────────────────────
	sun := light.NewLight(light.LightTypeDirectional,
		light.WithDirection(mgl32.Vec3{-0.4, -1, -0.3}),
		light.WithColor(mgl32.Vec3{1, 0.95, 0.85}),
		light.WithIntensity(3),
		light.WithShadowProducer(true),
		light.WithGIType(light.GILightPropagationVolumes),
	)
	var points []light.Light
	for i := range 6 {
		hue := float32(i) / 6
		points = append(points, light.NewLight(light.LightTypePoint,
			light.WithColor(mgl32.Vec3{1 - hue, 0.4 + hue*0.5, hue}),
			light.WithIntensity(6),
			light.WithRange(8),
			light.WithShadowProducer(true),
			light.WithGIType(light.GILightPropagationVolumesGeometry),
		))
	}
	spots := []light.Light{
		light.NewLight(light.LightTypeSpot,
			light.WithPosition(mgl32.Vec3{-8, 10, 0}),
			light.WithDirection(mgl32.Vec3{0.5, -1, 0}),
			light.WithSpotCone(20, 30),
			light.WithRange(25),
			light.WithIntensity(10),
			light.WithShadowProducer(true),
			light.WithGIType(light.GILayeredLightPropagationVolumes),
		),
		light.NewLight(light.LightTypeSpot,
			light.WithPosition(mgl32.Vec3{8, 10, 0}),
			light.WithDirection(mgl32.Vec3{-0.5, -1, 0}),
			light.WithSpotCone(20, 30),
			light.WithRange(25),
			light.WithIntensity(10),
			light.WithShadowProducer(true),
			light.WithGIType(light.GILayeredLightPropagationVolumesGeometry),
		),
	}
	sc := scene.NewScene("Cornell Courtyard",
		scene.WithActive(true),
		scene.WithBounds(common.NewAABB(mgl32.Vec3{-20, 0, -20}, mgl32.Vec3{20, 16, 20})),
		scene.WithAmbientColor(mgl32.Vec3{0.02, 0.02, 0.03}),
		scene.WithLights(append(append([]light.Light{sun}, points...), spots...)...),
	)

	// ── Technique ───────────────────────────────────────────────────────
	tech := technique.NewRenderTechnique(device, sc, cam,
		technique.WithConfig(cfg),
		technique.WithSize(uint32(win.Width()), uint32(win.Height())),
		technique.WithLogger(logger),
	)
	if err := tech.Initialise(); err != nil {
		log.Fatalf("[Main] %v", err)
	}
	defer tech.Cleanup()

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithTechnique(tech, device.Queue()),
		engine.WithTickRate(60),
		engine.WithProfiling(true),
	)

	var (
		elapsed   float32
		paused    atomic.Bool
		profiling = true
		pointGI   = light.GILightPropagationVolumesGeometry
	)
	eng.SetTickCallback(func(dt float32) {
		if paused.Load() {
			return
		}
		elapsed += dt
		for i, l := range points {
			angle := elapsed*0.5 + float32(i)*2*math.Pi/float32(len(points))
			l.SetPosition(mgl32.Vec3{
				12 * float32(math.Cos(float64(angle))),
				2 + 1.5*float32(math.Sin(float64(elapsed+float32(i)))),
				12 * float32(math.Sin(float64(angle))),
			})
		}
	})

	win.SetScrollCallback(func(delta float32) {
		orbit.Zoom(delta)
	})
	win.SetDragCallback(func(dx, dy float32) {
		orbit.Orbit(-dx*0.005, dy*0.005)
	})
	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyG:
			i := slices.Index(light.GITypes, pointGI)
			pointGI = light.GITypes[(i+1)%len(light.GITypes)]
			for _, l := range points {
				l.SetGIType(pointGI)
			}
			win.SetTitle(fmt.Sprintf("oxy-gi | point lights: %s", pointGI))
		case common.Key1:
			sun.SetEnabled(!sun.Enabled())
		case common.Key2:
			for _, l := range points {
				l.SetEnabled(!l.Enabled())
			}
		case common.Key3:
			for _, l := range spots {
				l.SetEnabled(!l.Enabled())
			}
		case common.KeyE:
			tech.InvalidateEnvironment()
		case common.KeyP:
			if profiling = !profiling; profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		case common.KeySpace:
			paused.Store(!paused.Load())
		}
	})

	logger.Infof("[Main] running with %d lights", sc.Lights().Len())
	eng.Run()
	if err := win.Close(); err != nil {
		logger.Warnf("[Main] %v", err)
	}
}
