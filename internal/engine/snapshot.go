package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// SnapshotExport is the JSON-serializable state of a running scene.
type SnapshotExport struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Frames      uint64       `json:"frames"`
	Elapsed     float64      `json:"elapsed_seconds"`
	OrbitTime   float64      `json:"orbit_seconds"`
	Speed       float64      `json:"speed"`
	Camera      CameraExport `json:"camera"`
	Selected    string       `json:"selected,omitempty"`
	Bodies      []BodyExport `json:"bodies"`
	Selections  []Selection  `json:"selections,omitempty"`
}

// CameraExport is a JSON-friendly camera pose.
type CameraExport struct {
	Mode     string     `json:"mode"`
	Eye      [3]float64 `json:"eye"`
	Target   [3]float64 `json:"target"`
	TargetID string     `json:"target_id,omitempty"`
	Distance float64    `json:"distance"`
}

// BodyExport is one body's world state.
type BodyExport struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Parent     string     `json:"parent,omitempty"`
	Position   [3]float64 `json:"position"`
	Radius     float64    `json:"display_radius"`
	OrbitDeg   float64    `json:"orbit_deg"` // Angle within the parent's frame
	SpinDeg    float64    `json:"spin_deg"`
	Distance   float64    `json:"distance_from_star"`
	Retrograde bool       `json:"retrograde,omitempty"`
}

func vec3(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// degrees normalizes an angle in radians to [0, 360).
func degrees(rad float64) float64 {
	d := math.Mod(rad*180/math.Pi, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Snapshot exports the current scene. Bodies whose nodes no longer resolve
// are left out.
func (e *Engine) Snapshot(generatedAt time.Time) *SnapshotExport {
	cam := e.cam.State()
	tm := e.clock.Time()
	export := &SnapshotExport{
		GeneratedAt: generatedAt,
		Frames:      e.frames,
		Elapsed:     tm.Elapsed,
		OrbitTime:   tm.Orbit,
		Speed:       e.clock.Speed(),
		Camera: CameraExport{
			Mode:     cam.Mode.String(),
			Eye:      vec3(cam.Eye),
			Target:   vec3(cam.Target),
			TargetID: cam.TargetID,
			Distance: e.cam.Distance(),
		},
		Selected:   e.selected,
		Selections: e.history.ordered(),
	}

	star, _ := e.graph.Locate(e.reg.Star().ID)
	for _, b := range e.reg.Bodies() {
		if be, ok := e.exportBody(b.ID, star); ok {
			export.Bodies = append(export.Bodies, be)
		}
		for _, m := range b.Moons {
			if be, ok := e.exportBody(m.ID, star); ok {
				export.Bodies = append(export.Bodies, be)
			}
		}
	}
	return export
}

func (e *Engine) exportBody(id string, star r3.Vec) (BodyExport, bool) {
	entry, ok := e.reg.Lookup(id)
	if !ok {
		return BodyExport{}, false
	}
	n, ok := e.graph.LookupNode(id)
	if !ok {
		return BodyExport{}, false
	}
	pos, _ := e.graph.WorldPosition(n.ID)
	local := n.Local.Position
	return BodyExport{
		ID:         entry.ID,
		Name:       entry.Name,
		Kind:       entry.Kind.String(),
		Parent:     entry.ParentID,
		Position:   vec3(pos),
		Radius:     entry.DisplayRadius,
		OrbitDeg:   degrees(math.Atan2(local.Z, local.X)),
		SpinDeg:    degrees(n.Spin),
		Distance:   r3.Norm(r3.Sub(pos, star)),
		Retrograde: entry.SpinSpeed < 0,
	}, true
}

// WriteJSON writes the snapshot as indented JSON.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteSummaryTable writes a text table of body positions.
func (s *SnapshotExport) WriteSummaryTable(w io.Writer) {
	fmt.Fprintf(w, "Orrery @ t=%.1fs (orbit %.1fs, speed %.2fx, %d frames)\n",
		s.Elapsed, s.OrbitTime, s.Speed, s.Frames)
	fmt.Fprintln(w, strings.Repeat("─", 78))

	if len(s.Bodies) == 0 {
		fmt.Fprintln(w, "No bodies")
		return
	}

	fmt.Fprintf(w, "%-10s %-7s %-9s %8s %8s %8s %9s %6s\n",
		"Body", "Kind", "Parent", "X", "Y", "Z", "Orbit°", "Spin°")
	fmt.Fprintln(w, strings.Repeat("─", 78))

	for _, b := range s.Bodies {
		kind := b.Kind
		if b.Retrograde {
			kind += "↺"
		}
		fmt.Fprintf(w, "%-10s %-7s %-9s %8.2f %8.2f %8.2f %9.1f %6.0f\n",
			truncate(b.Name, 10),
			kind,
			truncate(b.Parent, 9),
			b.Position[0], b.Position[1], b.Position[2],
			b.OrbitDeg,
			b.SpinDeg,
		)
	}

	fmt.Fprintf(w, "\nCamera: %s, distance %.1f", s.Camera.Mode, s.Camera.Distance)
	if s.Camera.TargetID != "" {
		fmt.Fprintf(w, ", locked on %s", s.Camera.TargetID)
	}
	fmt.Fprintf(w, "\nTotal: %d bodies\n", len(s.Bodies))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
