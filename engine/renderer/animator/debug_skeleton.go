package animator

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// DebugSkeleton is the line geometry of a posed skeleton: one point per joint and one segment per
// parent/child pair.
type DebugSkeleton struct {
	// Points are the joints' world positions in joint order.
	Points []mgl32.Vec3

	// Depths are the joints' depths below their root joint, in joint order.
	Depths []int

	// Lines pairs each non-root joint (second) with its parent (first), in joint order.
	Lines [][2]mgl32.Vec3
}

// BuildDebugSkeleton extracts the debug skeleton from world transforms produced by
// SkinningEngine.ComputeSkinMatrices for the same hierarchy.
//
// Parameters:
//   - h: the joint hierarchy
//   - world: the world matrix of each joint
//
// Returns:
//   - DebugSkeleton: the skeleton geometry
//   - error: ErrInvariantViolation if world does not hold one matrix per joint or a parent index is invalid
func BuildDebugSkeleton(h *model.JointHierarchy, world []mgl32.Mat4) (DebugSkeleton, error) {
	if err := h.Validate(); err != nil {
		return DebugSkeleton{}, err
	}
	if len(world) != h.Len() {
		return DebugSkeleton{}, common.Invariantf("%d world transforms for %d joints", len(world), h.Len())
	}

	s := DebugSkeleton{
		Points: make([]mgl32.Vec3, h.Len()),
		Depths: make([]int, h.Len()),
	}
	h.Walk(func(i int, j *model.Joint, depth int) {
		s.Points[i] = common.Origin(world[i])
		s.Depths[i] = depth
		if !j.IsRoot() {
			s.Lines = append(s.Lines, [2]mgl32.Vec3{s.Points[j.Parent], s.Points[i]})
		}
	})
	return s, nil
}

// LineVertices flattens the skeleton's segments into a line-list vertex stream.
//
// Returns:
//   - []GPUDebugLineVertex: two vertices per segment
func (s DebugSkeleton) LineVertices() []GPUDebugLineVertex {
	out := make([]GPUDebugLineVertex, 0, len(s.Lines)*2)
	line := 0
	for i := range s.Points {
		if s.Depths[i] == 0 {
			continue
		}
		seg := s.Lines[line]
		line++
		out = append(out,
			GPUDebugLineVertex{Position: seg[0], Depth: float32(s.Depths[i] - 1)},
			GPUDebugLineVertex{Position: seg[1], Depth: float32(s.Depths[i])},
		)
	}
	return out
}

// Marshal serializes the line vertex stream for GPU upload.
//
// Returns:
//   - []byte: 16 bytes per vertex
func (s DebugSkeleton) Marshal() []byte {
	verts := s.LineVertices()
	buf := make([]byte, 0, len(verts)*16)
	for i := range verts {
		buf = append(buf, verts[i].Marshal()...)
	}
	return buf
}
