package importer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var geometryTypes = map[string]bool{
	"Point":              true,
	"MultiPoint":         true,
	"LineString":         true,
	"MultiLineString":    true,
	"Polygon":            true,
	"MultiPolygon":       true,
	"GeometryCollection": true,
}

// DecodeJSON распознаёт нетипизированный JSON-результат разбора:
// массив коллекций, коллекцию, одиночный Feature или список геометрий.
func DecodeJSON(data []byte) (Parsed, error) {
	trimmed := bytes.TrimSpace(data)

	var doc interface{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &MalformedImportError{TypeName: "invalid json", Cause: err}
	}

	switch v := doc.(type) {
	case []interface{}:
		return decodeArray(trimmed, v)
	case map[string]interface{}:
		return decodeObject(trimmed, v)
	default:
		return nil, &MalformedImportError{TypeName: jsonTypeName(doc)}
	}
}

func decodeArray(data []byte, items []interface{}) (Parsed, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &MalformedImportError{TypeName: "array", Cause: err}
	}
	if len(items) == 0 {
		return nil, &MalformedImportError{TypeName: "array", Cause: fmt.Errorf("empty array")}
	}

	switch {
	case allObjects(items, isCollection):
		list := CollectionList{Collections: make([]*geojson.FeatureCollection, 0, len(elems))}
		for i, raw := range elems {
			fc, err := geojson.UnmarshalFeatureCollection(raw)
			if err != nil {
				return nil, &MalformedImportError{TypeName: "array", Cause: fmt.Errorf("collection %d: %w", i, err)}
			}
			list.Collections = append(list.Collections, fc)
		}
		return list, nil
	case allObjects(items, isGeometry):
		list := GeometryList{Geometries: make([]orb.Geometry, 0, len(elems))}
		for i, raw := range elems {
			g, err := geojson.UnmarshalGeometry(raw)
			if err != nil {
				return nil, &MalformedImportError{TypeName: "array", Cause: fmt.Errorf("geometry %d: %w", i, err)}
			}
			list.Geometries = append(list.Geometries, g.Geometry())
		}
		return list, nil
	default:
		return nil, &MalformedImportError{TypeName: "array"}
	}
}

func decodeObject(data []byte, obj map[string]interface{}) (Parsed, error) {
	switch {
	case isCollection(obj):
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, &MalformedImportError{TypeName: "object", Cause: err}
		}
		return SingleCollection{Collection: fc}, nil
	case obj["type"] == "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, &MalformedImportError{TypeName: "object", Cause: err}
		}
		return SingleFeature{Feature: f}, nil
	case isGeometry(obj):
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, &MalformedImportError{TypeName: "object", Cause: err}
		}
		return GeometryList{Geometries: []orb.Geometry{g.Geometry()}}, nil
	default:
		return nil, &MalformedImportError{TypeName: "object"}
	}
}

func isCollection(obj map[string]interface{}) bool {
	_, ok := obj["features"].([]interface{})
	return ok
}

func isGeometry(obj map[string]interface{}) bool {
	t, _ := obj["type"].(string)
	return geometryTypes[t]
}

func allObjects(items []interface{}, pred func(map[string]interface{}) bool) bool {
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok || !pred(obj) {
			return false
		}
	}
	return true
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
