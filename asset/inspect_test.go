package asset

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
)

func buildTriangleDoc() *gltf.Document {
	doc := gltf.NewDocument()

	positions := modeler.WritePosition(doc, [][3]float32{
		{-1, 0, -2},
		{1, 0, 0},
		{0, 3, 1},
	})
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2})

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{"POSITION": positions},
			Indices:    gltf.Index(indices),
			Mode:       gltf.PrimitiveTriangles,
		}},
	})
	return doc
}

func TestInspectDocument(t *testing.T) {
	stats := inspectDocument(buildTriangleDoc())

	assert.Equal(t, 1, stats.Meshes)
	assert.Equal(t, uint64(3), stats.Vertices)
	assert.Equal(t, uint64(1), stats.Triangles)
	assert.Equal(t, mgl32.Vec3{-1, 0, -2}, stats.BoundsMin)
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, stats.BoundsMax)
}

func TestInspectDocumentWithoutMeshes(t *testing.T) {
	stats := inspectDocument(gltf.NewDocument())

	assert.Equal(t, 0, stats.Meshes)
	assert.Equal(t, uint64(0), stats.Triangles)
}
