package importer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhao-editor/internal/importer"
)

const polygonJSON = `{"type":"Polygon","coordinates":[[[-39,-18],[-38.999,-18],[-38.999,-17.999],[-39,-18]]]}`

func TestDecodeJSON_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		shape string
	}{
		{
			name:  "array of collections",
			input: `[{"type":"FeatureCollection","features":[]},{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":` + polygonJSON + `}]}]`,
			shape: "collection_list",
		},
		{
			name:  "feature collection",
			input: `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"Name":"A"},"geometry":` + polygonJSON + `}]}`,
			shape: "collection",
		},
		{
			name:  "bare feature",
			input: `{"type":"Feature","properties":{"TALHAO":"3"},"geometry":` + polygonJSON + `}`,
			shape: "feature",
		},
		{
			name:  "geometry list",
			input: `[` + polygonJSON + `,` + polygonJSON + `]`,
			shape: "geometry_list",
		},
		{
			name:  "single geometry",
			input: polygonJSON,
			shape: "geometry_list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := importer.DecodeJSON([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, importer.ShapeName(parsed))
		})
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	tests := []struct {
		input    string
		typeName string
	}{
		{`null`, "null"},
		{`42`, "number"},
		{`"shape"`, "string"},
		{`true`, "boolean"},
		{`{"foo":"bar"}`, "object"},
		{`[]`, "array"},
		{`[1,2,3]`, "array"},
		{`{not json`, "invalid json"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parsed, err := importer.DecodeJSON([]byte(tt.input))
			assert.Nil(t, parsed)

			var malformed *importer.MalformedImportError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.typeName, malformed.TypeName)
		})
	}
}
