package importer_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/geometry/area"
	"github.com/talhao-editor/internal/geometry/reproject"
	"github.com/talhao-editor/internal/importer"
)

// writeShapefile пишет polygon-shapefile с атрибутом TALHAO и возвращает путь к .shp
func writeShapefile(t *testing.T, dir, name string, rings [][]shp.Point, labels []string) string {
	t.Helper()

	path := filepath.Join(dir, name+".shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("TALHAO", 20)}))
	for i, ring := range rings {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		row := w.Write(&poly)
		require.NoError(t, w.WriteAttribute(int(row), 0, labels[i]))
	}
	w.Close()

	return path
}

func zipFiles(t *testing.T, paths ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		f, err := zw.Create(filepath.Base(p))
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func withExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}

var utmRing = []shp.Point{
	{X: 450000, Y: 7900000}, {X: 450100, Y: 7900000}, {X: 450100, Y: 7900100}, {X: 450000, Y: 7900100}, {X: 450000, Y: 7900000},
}

func TestParseFile_ArchiveEndToEnd(t *testing.T) {
	dir := t.TempDir()
	shpPath := writeShapefile(t, dir, "talhoes", [][]shp.Point{utmRing}, []string{"A1"})

	data := zipFiles(t, shpPath, withExt(shpPath, ".shx"), withExt(shpPath, ".dbf"))

	parsed, kind, err := importer.ParseFile("fazenda.zip", data)
	require.NoError(t, err)
	assert.Equal(t, importer.KindArchive, kind)

	res, err := importer.NewNormalizer(reproject.Default()).Normalize(parsed, kind)
	require.NoError(t, err)
	require.Len(t, res.Features, 1)

	f := res.Features[0]
	assert.Equal(t, "A1", f.Properties.Label)
	assert.Empty(t, res.Suspect)

	for _, pt := range f.Geometry.(orb.Polygon)[0] {
		assert.True(t, reproject.IsGeographic(pt))
	}
	assert.InDelta(t, 1.0, area.ComputeHa(f), 0.02)
}

func TestParseFile_BareShapefile(t *testing.T) {
	dir := t.TempDir()
	second := make([]shp.Point, len(utmRing))
	for i, p := range utmRing {
		second[i] = shp.Point{X: p.X + 200, Y: p.Y}
	}
	shpPath := writeShapefile(t, dir, "solto", [][]shp.Point{utmRing, second}, []string{"X", "Y"})

	data, err := os.ReadFile(shpPath)
	require.NoError(t, err)

	parsed, kind, err := importer.ParseFile("solto.shp", data)
	require.NoError(t, err)
	assert.Equal(t, importer.KindShapefile, kind)
	assert.Equal(t, "geometry_list", importer.ShapeName(parsed))

	res, err := importer.NewNormalizer(reproject.Default()).Normalize(parsed, kind)
	require.NoError(t, err)

	// атрибуты голого .shp не читаются - имена по порядку
	got := make([]string, 0, len(res.Features))
	for _, f := range res.Features {
		got = append(got, f.Properties.Label)
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestDetectKind(t *testing.T) {
	shpHeader := make([]byte, 100)
	shpHeader[2], shpHeader[3] = 0x27, 0x0a

	tests := []struct {
		name     string
		filename string
		data     []byte
		expected importer.FileKind
		wantErr  bool
	}{
		{"zip by extension", "a.ZIP", []byte("PK\x03\x04rest"), importer.KindArchive, false},
		{"shp by extension", "a.shp", shpHeader, importer.KindShapefile, false},
		{"geojson by extension", "a.geojson", []byte(` {"type":"Feature"}`), importer.KindGeoJSON, false},
		{"zip without extension", "upload", []byte("PK\x03\x04rest"), importer.KindArchive, false},
		{"wrong extension, json content", "a.shp", []byte(`[]`), importer.KindGeoJSON, false},
		{"unknown", "a.kml", []byte("<kml/>"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := importer.DetectKind(tt.filename, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, importer.ErrUnsupportedFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestParseFile_GeoJSONKeepsOverride(t *testing.T) {
	input := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"talhao":"9","area_manual":3.5},"geometry":` + polygonJSON + `}]}`

	parsed, kind, err := importer.ParseFile("fazenda.geojson", []byte(input))
	require.NoError(t, err)

	res, err := importer.NewNormalizer(reproject.Default()).Normalize(parsed, kind)
	require.NoError(t, err)
	require.Len(t, res.Features, 1)

	props := res.Features[0].Properties
	assert.Equal(t, "9", props.Label)
	require.NotNil(t, props.AreaOverrideHa)
	assert.Equal(t, 3.5, *props.AreaOverrideHa)
	assert.Equal(t, 3.5, area.ComputeHa(domain.Feature{Properties: props}))
}
