package importer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/geometry/reproject"
)

// labelCandidates - атрибуты, из которых берётся имя талхана, в порядке приоритета.
// Сравнение без учёта регистра.
var labelCandidates = []string{
	"name",
	"nome",
	"talhao",
	"talhão",
	"num_talhao",
	"n_talhao",
	"nr_talhao",
	"cod_talhao",
	"codigo",
	"cod",
}

// Result - нормализованный импорт
type Result struct {
	Kind        FileKind
	Shape       string
	Features    []domain.Feature
	Skipped     int   // элементы без геометрии
	PointErrors int   // точки, оставленные без перепроекции
	Suspect     []int // индексы Features с непереведёнными точками
}

// Normalizer приводит результат разбора к списку талханов в WGS84
type Normalizer struct {
	projection reproject.Projection
}

// NewNormalizer создает нормализатор для заданной проекции
func NewNormalizer(projection reproject.Projection) *Normalizer {
	return &Normalizer{projection: projection}
}

// Normalize разворачивает вход в плоский список с сохранением порядка,
// перепроецирует геометрию и подбирает имя талхана.
// Если вход не распознан, возвращается *MalformedImportError и ни одного элемента.
func (n *Normalizer) Normalize(parsed Parsed, kind FileKind) (*Result, error) {
	raw, err := flatten(parsed)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Kind:     kind,
		Shape:    ShapeName(parsed),
		Features: make([]domain.Feature, 0, len(raw)),
	}

	for i, gf := range raw {
		if gf == nil || gf.Geometry == nil {
			res.Skipped++
			continue
		}

		geom, pointErrs := n.projection.Geometry(gf.Geometry)

		f := domain.FeatureFromGeoJSON(gf)
		f.Geometry = geom
		f.Properties.Label = GuessLabel(gf.Properties, i+1)

		if len(pointErrs) > 0 {
			res.PointErrors += len(pointErrs)
			res.Suspect = append(res.Suspect, len(res.Features))
		}
		res.Features = append(res.Features, f)
	}

	return res, nil
}

// GuessLabel ищет имя талхана среди известных атрибутов; если ничего не найдено,
// используется порядковый номер элемента во входном списке (с единицы).
func GuessLabel(props geojson.Properties, position int) string {
	if len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, candidate := range labelCandidates {
			if v, ok := props[candidate]; ok {
				if label := domain.PropertyString(v); label != "" {
					return label
				}
			}
			for _, k := range keys {
				if strings.EqualFold(k, candidate) {
					if label := domain.PropertyString(props[k]); label != "" {
						return label
					}
				}
			}
		}
	}
	return strconv.Itoa(position)
}
