package importer_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhao-editor/internal/geometry/reproject"
	"github.com/talhao-editor/internal/importer"
)

func geographicSquare(x, y float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + 0.001, y}, {x + 0.001, y + 0.001}, {x, y + 0.001}, {x, y}}}
}

func featureWith(g orb.Geometry, props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(g)
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func collection(features ...*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	return fc
}

func labels(res *importer.Result) []string {
	out := make([]string, 0, len(res.Features))
	for _, f := range res.Features {
		out = append(out, f.Properties.Label)
	}
	return out
}

func TestNormalize_CollectionListPreservesOrder(t *testing.T) {
	n := importer.NewNormalizer(reproject.Default())

	parsed := importer.CollectionList{Collections: []*geojson.FeatureCollection{
		collection(
			featureWith(geographicSquare(-39.1, -18.1), nil),
			featureWith(geographicSquare(-39.2, -18.2), nil),
		),
		collection(
			featureWith(geographicSquare(-39.3, -18.3), nil),
		),
	}}

	res, err := n.Normalize(parsed, importer.KindArchive)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, labels(res))
	assert.Equal(t, "collection_list", res.Shape)
	assert.Equal(t, importer.KindArchive, res.Kind)
	assert.Equal(t, orb.Point{-39.3, -18.3}, res.Features[2].Geometry.(orb.Polygon)[0][0])
}

func TestNormalize_Shapes(t *testing.T) {
	n := importer.NewNormalizer(reproject.Default())
	sq := geographicSquare(-39, -18)

	tests := []struct {
		name     string
		parsed   importer.Parsed
		expected []string
	}{
		{
			name:     "single collection",
			parsed:   importer.SingleCollection{Collection: collection(featureWith(sq, map[string]interface{}{"Name": "Sede"}), featureWith(sq, nil))},
			expected: []string{"Sede", "2"},
		},
		{
			name:     "bare feature",
			parsed:   importer.SingleFeature{Feature: featureWith(sq, map[string]interface{}{"NOME": "Baixada"})},
			expected: []string{"Baixada"},
		},
		{
			name:     "geometry list",
			parsed:   importer.GeometryList{Geometries: []orb.Geometry{sq, sq}},
			expected: []string{"1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := n.Normalize(tt.parsed, importer.KindGeoJSON)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, labels(res))
		})
	}
}

func TestNormalize_SkipsMissingGeometry(t *testing.T) {
	n := importer.NewNormalizer(reproject.Default())
	sq := geographicSquare(-39, -18)

	parsed := importer.GeometryList{Geometries: []orb.Geometry{sq, nil, sq}}
	res, err := n.Normalize(parsed, importer.KindShapefile)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	// номер берётся по позиции во входном списке
	assert.Equal(t, []string{"1", "3"}, labels(res))
}

func TestNormalize_Malformed(t *testing.T) {
	n := importer.NewNormalizer(reproject.Default())

	tests := []struct {
		name   string
		parsed importer.Parsed
	}{
		{"nil", nil},
		{"nil collection", importer.SingleCollection{}},
		{"nil feature", importer.SingleFeature{}},
		{"nil geometry list", importer.GeometryList{}},
		{"collection list with nil entry", importer.CollectionList{Collections: []*geojson.FeatureCollection{nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := n.Normalize(tt.parsed, importer.KindArchive)
			assert.Nil(t, res)

			var malformed *importer.MalformedImportError
			require.ErrorAs(t, err, &malformed)
			assert.NotEmpty(t, malformed.TypeName)
		})
	}
}

func TestNormalize_ReprojectsAndFlagsSuspect(t *testing.T) {
	n := importer.NewNormalizer(reproject.Default())

	bad := orb.Polygon{{{450000, 7900000}, {1e30, 1e30}, {450100, 7900100}, {450000, 7900000}}}
	parsed := importer.GeometryList{Geometries: []orb.Geometry{geographicSquare(-39, -18), bad}}

	res, err := n.Normalize(parsed, importer.KindShapefile)
	require.NoError(t, err)
	require.Len(t, res.Features, 2)

	assert.Equal(t, []int{1}, res.Suspect)
	assert.Equal(t, 1, res.PointErrors)

	ring := res.Features[1].Geometry.(orb.Polygon)[0]
	assert.True(t, reproject.IsGeographic(ring[0]))
	assert.Equal(t, orb.Point{1e30, 1e30}, ring[1])

	// исходный список не изменён
	assert.Equal(t, orb.Point{450000, 7900000}, bad[0][0])
}

func TestGuessLabel(t *testing.T) {
	tests := []struct {
		name     string
		props    geojson.Properties
		expected string
	}{
		{"name wins over talhao", geojson.Properties{"TALHAO": "7", "Name": "Sede"}, "Sede"},
		{"talhao upper case", geojson.Properties{"TALHAO": "A1"}, "A1"},
		{"numeric plot number", geojson.Properties{"NUM_TALHAO": 12.0}, "12"},
		{"blank candidate skipped", geojson.Properties{"Name": "  ", "COD": "X9"}, "X9"},
		{"no candidates", geojson.Properties{"AREA": 10.0}, "4"},
		{"nil props", nil, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, importer.GuessLabel(tt.props, 4))
		})
	}
}
