// Package scene - серверная реализация слоя отрисовки. Хранит оверлеи
// сессии и отдаёт их браузерной карте как GeoJSON FeatureCollection.
package scene

import (
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/editor"
)

// ErrUnknownOverlay - ссылка не принадлежит этому холсту или уже снята
var ErrUnknownOverlay = errors.New("unknown overlay")

// Overlay - полигон на карте
type Overlay struct {
	HandleID domain.HandleID
	Geometry orb.Geometry
	Style    editor.Style
	Label    string
	Form     *editor.EditForm
	Popup    string
}

// Canvas - набор оверлеев одной сессии в порядке создания
type Canvas struct {
	mu       sync.RWMutex
	overlays []*Overlay
}

// NewCanvas создает пустой холст
func NewCanvas() *Canvas {
	return &Canvas{}
}

var _ editor.Renderer = (*Canvas)(nil)

func (c *Canvas) CreateOverlay(id domain.HandleID, g orb.Geometry, style editor.Style) (editor.RenderHandle, error) {
	if g == nil {
		return nil, errors.New("overlay without geometry")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	o := &Overlay{HandleID: id, Geometry: orb.Clone(g), Style: style}
	c.overlays = append(c.overlays, o)
	return o, nil
}

func (c *Canvas) SetGeometry(h editor.RenderHandle, g orb.Geometry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, err := c.lookup(h)
	if err != nil {
		return err
	}
	o.Geometry = orb.Clone(g)
	return nil
}

func (c *Canvas) SetLabel(h editor.RenderHandle, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, err := c.lookup(h)
	if err != nil {
		return err
	}
	o.Label = html
	return nil
}

func (c *Canvas) AttachEditForm(h editor.RenderHandle, form editor.EditForm) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, err := c.lookup(h)
	if err != nil {
		return err
	}
	o.Form = &form
	return nil
}

func (c *Canvas) AttachInfoPopup(h editor.RenderHandle, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, err := c.lookup(h)
	if err != nil {
		return err
	}
	o.Popup = html
	return nil
}

func (c *Canvas) RemoveOverlay(h editor.RenderHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := h.(*Overlay)
	if !ok {
		return ErrUnknownOverlay
	}
	for i, cur := range c.overlays {
		if cur == o {
			c.overlays = append(c.overlays[:i], c.overlays[i+1:]...)
			return nil
		}
	}
	return ErrUnknownOverlay
}

func (c *Canvas) Bounds(h editor.RenderHandle) (orb.Bound, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, err := c.lookup(h)
	if err != nil || o.Geometry == nil {
		return orb.Bound{}, false
	}
	return o.Geometry.Bound(), true
}

// Len - количество оверлеев на холсте
func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.overlays)
}

// FeatureCollection экспортирует оверлеи для карты: стиль, подпись и
// форма/попап лежат в свойствах каждого feature
func (c *Canvas) FeatureCollection() *geojson.FeatureCollection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, o := range c.overlays {
		f := geojson.NewFeature(orb.Clone(o.Geometry))
		f.ID = o.HandleID.String()
		f.Properties["handle_id"] = uint64(o.HandleID)
		f.Properties["style"] = o.Style
		f.Properties["label_html"] = o.Label
		if o.Form != nil {
			f.Properties["edit_form"] = *o.Form
		}
		if o.Popup != "" {
			f.Properties["popup_html"] = o.Popup
		}
		fc.Append(f)
	}
	return fc
}

func (c *Canvas) lookup(h editor.RenderHandle) (*Overlay, error) {
	o, ok := h.(*Overlay)
	if !ok {
		return nil, ErrUnknownOverlay
	}
	for _, cur := range c.overlays {
		if cur == o {
			return o, nil
		}
	}
	return nil, ErrUnknownOverlay
}
