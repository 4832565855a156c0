// Command skinview loads glTF models and prints their scene graph, joint hierarchies, animation
// clips and the skinning matrices of a clip sampled at a given time.
//
// Usage:
//
//	skinview [-config viewer.yaml] [-clip name] [-time seconds] [-dump] [-gpu] model.glb...
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/clock"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("[skinview] %v", err)
	}
}

// options are the parsed command line flags.
type options struct {
	config      string
	clip        string
	time        float64
	dump        bool
	gpu         bool
	noSkin      bool
	debugJoints bool
	models      []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("skinview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "YAML viewer configuration")
	fs.StringVar(&o.clip, "clip", "", "clip to sample (default: the first clip)")
	fs.Float64Var(&o.time, "time", 0, "clip time in seconds")
	fs.BoolVar(&o.dump, "dump", false, "dump the full frame")
	fs.BoolVar(&o.gpu, "gpu", false, "upload the frame to a headless wgpu device")
	fs.BoolVar(&o.noSkin, "no-skinning", false, "report bind pose matrices")
	fs.BoolVar(&o.debugJoints, "debug-joints", false, "build the debug skeleton")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	o.models = fs.Args()
	return o, nil
}

func run(args []string, stdout io.Writer) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := viewer.ParseConfig(nil)
	if err != nil {
		return err
	}
	if o.config != "" {
		if cfg, err = viewer.LoadConfig(o.config); err != nil {
			return err
		}
	}
	cfg.Models = append(cfg.Models, o.models...)
	if len(cfg.Models) == 0 {
		return errors.New("no models given")
	}
	cfg.Autoplay = false
	if o.noSkin {
		off := false
		cfg.Skinning = &off
	}
	cfg.DebugJoints = cfg.DebugJoints || o.debugJoints

	// Sampling is deterministic: playback only moves through Scrub.
	extra := []viewer.ViewerBuilderOption{viewer.WithClock(clock.NewManual(0))}
	var gpu renderer.WGPUBackend
	if o.gpu {
		r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, renderer.WithForceSoftwareRenderer(true))
		if err != nil {
			return err
		}
		defer r.Release()
		gpu, _ = r.Backend().(renderer.WGPUBackend)
		extra = append(extra, viewer.WithRenderer(r))
	}

	v, err := viewer.NewViewerFromConfig(cfg, extra...)
	if err != nil && len(v.Models()) == 0 {
		return err
	}

	models := v.Models()
	dropped := 0
	for i, m := range models {
		if err := v.SelectModel(i - dropped); err != nil {
			return err
		}
		printModel(stdout, m)

		frame, err := sample(v, m, o.clip, float32(o.time))
		if err != nil {
			fmt.Fprintf(stdout, "  sample failed: %v\n", err)
			if len(v.Models()) < len(models)-dropped {
				dropped++
			}
			continue
		}
		printFrame(stdout, frame, o.dump)
		if gpu != nil {
			for _, pose := range frame.Skins {
				fmt.Fprintf(stdout, "  gpu buffer %s resident: %t\n", pose.Key, gpu.BufferHandle(pose.Key) != nil)
			}
		}
	}
	return nil
}

// sample scrubs the selected model's clip to t and steps it once. A model without clips is stepped
// in its authored pose.
func sample(v viewer.Viewer, m model.Model, clipName string, t float32) (animator.Frame, error) {
	if m.AnimationCount() > 0 {
		clip := 0
		if clipName != "" {
			if clip = m.GetAnimationIndex(clipName); clip < 0 {
				return animator.Frame{}, errors.Errorf("model %q has no clip %q", m.Name(), clipName)
			}
		}
		if err := v.SetActiveClip(clip); err != nil {
			return animator.Frame{}, err
		}
		if _, static := v.Player().State().(animator.Static); static {
			v.TogglePlay()
		}
		v.Scrub(t)
	}
	return v.Tick()
}

// --- Output ---

func printModel(w io.Writer, m model.Model) {
	fmt.Fprintf(w, "model %s\n", m.Name())

	fmt.Fprintln(w, "  scene:")
	var walk func(n *model.Node, depth int)
	walk = func(n *model.Node, depth int) {
		var tags []string
		if n.Mesh != nil {
			var radius float32
			for i := range n.Mesh.Primitives {
				radius = max(radius, n.Mesh.Primitives[i].ComputeBoundingRadius())
			}
			tags = append(tags, fmt.Sprintf("mesh %s r=%.3f", n.Mesh.Name, radius))
		}
		if n.Skin != nil {
			tags = append(tags, fmt.Sprintf("skin %d joints", n.Skin.Len()))
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ", ") + "]"
		}
		fmt.Fprintf(w, "    %s#%d %s%s\n", strings.Repeat("  ", depth), n.ID, n.Name, suffix)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(m.Root(), 0)

	for _, sn := range m.SkinnedNodes() {
		fmt.Fprintf(w, "  joints of #%d %s:\n", sn.Node.ID, sn.Node.Name)
		sn.Node.Skin.Walk(func(i int, j *model.Joint, depth int) {
			fmt.Fprintf(w, "    %s%d %s (parent %d) t=%v r=%v s=%v\n", strings.Repeat("  ", depth), i, j.Name, j.Parent,
				j.Local.Translation, common.QuatToXYZW(j.Local.Rotation), j.Local.Scale)
		})
	}

	fmt.Fprintln(w, "  clips:")
	for i, clip := range m.Animations() {
		fmt.Fprintf(w, "    %d %s %.3fs, %d channels\n", i, clip.Name, clip.EndTime, len(clip.Channels))
	}
}

func printFrame(w io.Writer, frame animator.Frame, dump bool) {
	fmt.Fprintf(w, "  frame: %v clip %d at %.3fs\n", frame.State, frame.Clip, frame.Time)
	for _, pose := range frame.Skins {
		fmt.Fprintf(w, "  skin %s:\n", pose.Key)
		for i := 0; i < int(pose.Joints.Count); i++ {
			m := pose.Joints.Matrix(i)
			fmt.Fprintf(w, "    %d t=(%.4f, %.4f, %.4f)\n", i, m[12], m[13], m[14])
		}
		if pose.Skeleton != nil {
			fmt.Fprintf(w, "    debug skeleton: %d points, %d lines\n", len(pose.Skeleton.Points), len(pose.Skeleton.Lines))
		}
	}
	if dump {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, MaxDepth: 3}
		cfg.Fdump(w, frame)
	}
}
