package importer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrUnsupportedFile - ни расширение, ни сигнатура не соответствуют поддерживаемым форматам
var ErrUnsupportedFile = errors.New("unsupported import file")

const shpFileCode = 9994

var zipMagic = []byte("PK\x03\x04")

// DetectKind определяет тип файла по расширению и сигнатуре содержимого
func DetectKind(filename string, data []byte) (FileKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case ext == ".zip" && bytes.HasPrefix(data, zipMagic):
		return KindArchive, nil
	case ext == ".shp" && isShapefile(data):
		return KindShapefile, nil
	case (ext == ".geojson" || ext == ".json") && looksLikeJSON(data):
		return KindGeoJSON, nil
	}

	// расширение не помогло - смотрим только на содержимое
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return KindArchive, nil
	case isShapefile(data):
		return KindShapefile, nil
	case looksLikeJSON(data):
		return KindGeoJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
}

func isShapefile(data []byte) bool {
	return len(data) >= 100 && binary.BigEndian.Uint32(data[0:4]) == shpFileCode
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// ParseFile разбирает загруженный файл в один из вариантов Parsed
func ParseFile(filename string, data []byte) (Parsed, FileKind, error) {
	kind, err := DetectKind(filename, data)
	if err != nil {
		return nil, "", err
	}

	var parsed Parsed
	switch kind {
	case KindShapefile:
		parsed, err = parseShapefile(data)
	case KindArchive:
		parsed, err = parseArchive(data)
	case KindGeoJSON:
		parsed, err = DecodeJSON(data)
	}
	if err != nil {
		return nil, kind, err
	}
	return parsed, kind, nil
}

// parseShapefile читает голый .shp: только геометрии, без атрибутов
func parseShapefile(data []byte) (Parsed, error) {
	dir, err := os.MkdirTemp("", "talhao-shp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload.shp")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp shapefile: %w", err)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, &MalformedImportError{TypeName: "shp", Cause: err}
	}
	defer reader.Close()

	list := GeometryList{Geometries: []orb.Geometry{}}
	for reader.Next() {
		_, shape := reader.Shape()
		list.Geometries = append(list.Geometries, shapeGeometry(shape))
	}
	if err := reader.Err(); err != nil {
		return nil, &MalformedImportError{TypeName: "shp", Cause: err}
	}
	return list, nil
}

// parseArchive читает все shapefile из zip в порядке архива, по коллекции на файл
func parseArchive(data []byte) (Parsed, error) {
	dir, err := os.MkdirTemp("", "talhao-zip-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload.zip")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp archive: %w", err)
	}

	names, err := shp.ShapesInZip(path)
	if err != nil {
		return nil, &MalformedImportError{TypeName: "archive", Cause: err}
	}
	if len(names) == 0 {
		return nil, &MalformedImportError{TypeName: "archive", Cause: errors.New("no shapefiles in archive")}
	}

	list := CollectionList{Collections: make([]*geojson.FeatureCollection, 0, len(names))}
	for _, name := range names {
		fc, err := readZippedShape(path, name)
		if err != nil {
			return nil, &MalformedImportError{TypeName: "archive", Cause: fmt.Errorf("%s: %w", name, err)}
		}
		list.Collections = append(list.Collections, fc)
	}
	return list, nil
}

func readZippedShape(zipPath, name string) (*geojson.FeatureCollection, error) {
	reader, err := shp.OpenShapeFromZip(zipPath, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	fields := reader.Fields()
	fc := geojson.NewFeatureCollection()
	for reader.Next() {
		_, shape := reader.Shape()

		f := geojson.NewFeature(shapeGeometry(shape))
		for i, field := range fields {
			f.Properties[field.String()] = attributeValue(field, reader.Attribute(i))
		}
		fc.Append(f)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return fc, nil
}

// attributeValue - числовые поля DBF приводятся к float64, чтобы "7.000" стал 7
func attributeValue(field shp.Field, raw string) interface{} {
	value := strings.TrimSpace(raw)
	switch field.Fieldtype {
	case 'N', 'F':
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}

// shapeGeometry переводит shape в orb. Внешние кольца shapefile идут по часовой
// стрелке, дыры - против; дыра относится к последнему внешнему кольцу.
func shapeGeometry(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Polygon:
		return polygonFromParts(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygonFromParts(s.Parts, s.Points)
	case *shp.PolygonM:
		return polygonFromParts(s.Parts, s.Points)
	case *shp.PolyLine:
		return lineFromParts(s.Parts, s.Points)
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	default:
		return nil
	}
}

func splitParts(parts []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		ring := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		out = append(out, ring)
	}
	return out
}

func polygonFromParts(parts []int32, points []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, part := range splitParts(parts, points) {
		ring := orb.Ring(part)
		if ring.Orientation() == orb.CW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}

	switch len(mp) {
	case 0:
		return nil
	case 1:
		return mp[0]
	default:
		return mp
	}
}

func lineFromParts(parts []int32, points []shp.Point) orb.Geometry {
	var mls orb.MultiLineString
	for _, part := range splitParts(parts, points) {
		mls = append(mls, orb.LineString(part))
	}

	switch len(mls) {
	case 0:
		return nil
	case 1:
		return mls[0]
	default:
		return mls
	}
}
