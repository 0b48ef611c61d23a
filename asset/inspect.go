package asset

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// Stats summarizes the source container for listings; they are computed
// once at intake and stored in the metadata sidecar.
type Stats struct {
	Meshes    int        `json:"meshes"`
	Triangles uint64     `json:"triangles"`
	Vertices  uint64     `json:"vertices"`
	BoundsMin mgl32.Vec3 `json:"boundsMin"`
	BoundsMax mgl32.Vec3 `json:"boundsMax"`
}

// Inspect parses a glb/gltf container and collects mesh statistics.
func Inspect(path string) (*Stats, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", path)
	}
	return inspectDocument(doc), nil
}

func inspectDocument(doc *gltf.Document) *Stats {
	stats := &Stats{Meshes: len(doc.Meshes)}

	haveBounds := false
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			posIndex, ok := prim.Attributes["POSITION"]
			if !ok || int(posIndex) >= len(doc.Accessors) {
				continue
			}
			pos := doc.Accessors[posIndex]
			stats.Vertices += uint64(pos.Count)

			if prim.Mode == gltf.PrimitiveTriangles {
				if prim.Indices != nil && int(*prim.Indices) < len(doc.Accessors) {
					stats.Triangles += uint64(doc.Accessors[*prim.Indices].Count) / 3
				} else {
					stats.Triangles += uint64(pos.Count) / 3
				}
			}

			if len(pos.Min) == 3 && len(pos.Max) == 3 {
				pMin := mgl32.Vec3{pos.Min[0], pos.Min[1], pos.Min[2]}
				pMax := mgl32.Vec3{pos.Max[0], pos.Max[1], pos.Max[2]}
				if !haveBounds {
					stats.BoundsMin, stats.BoundsMax = pMin, pMax
					haveBounds = true
				} else {
					stats.BoundsMin = vecMin(stats.BoundsMin, pMin)
					stats.BoundsMax = vecMax(stats.BoundsMax, pMax)
				}
			}
		}
	}
	return stats
}

func vecMin(a, b mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if b[i] < a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func vecMax(a, b mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}
