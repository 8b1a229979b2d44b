// Package editor держит состояние редактируемого набора талханов и связывает
// его с оверлеями карты.
package editor

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/talhao-editor/internal/domain"
)

// ErrRecordNotFound - мутация по неизвестному id (устаревшее событие после
// переключения режима). Не фатально: вызывающий логирует и продолжает.
var ErrRecordNotFound = errors.New("feature record not found")

// RenderHandle - ссылка на оверлей, принадлежащая слою отрисовки.
// Хранилище только хранит её и никогда не заглядывает внутрь.
type RenderHandle interface{}

// Record - талхан в сессии
type Record struct {
	HandleID     domain.HandleID
	Feature      domain.Feature
	RenderHandle RenderHandle
}

// PropertiesPatch - частичное изменение атрибутов. nil-поля не трогаются.
type PropertiesPatch struct {
	Label          *string
	AreaOverrideHa *float64
	ClearOverride  bool
}

// Store - упорядоченный набор записей с индексом по id.
// Инварианты: id уникальны и никогда не переиспользуются в пределах
// экземпляра; Feature.Properties.HandleID всегда равен HandleID записи.
type Store struct {
	records []*Record
	index   map[domain.HandleID]*Record
	lastID  domain.HandleID
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{index: make(map[domain.HandleID]*Record)}
}

// Insert выдаёт новый id, проставляет его в свойства и добавляет запись в конец
func (s *Store) Insert(f domain.Feature, handle RenderHandle) domain.HandleID {
	s.lastID++
	id := s.lastID

	f.Properties.HandleID = id
	rec := &Record{HandleID: id, Feature: f, RenderHandle: handle}

	s.records = append(s.records, rec)
	s.index[id] = rec
	return id
}

// BindHandle привязывает оверлей к уже вставленной записи
func (s *Store) BindHandle(id domain.HandleID, handle RenderHandle) error {
	rec, ok := s.index[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.RenderHandle = handle
	return nil
}

// UpdateGeometry заменяет геометрию. Свойства (имя, ручная площадь) не меняются.
func (s *Store) UpdateGeometry(id domain.HandleID, g orb.Geometry) error {
	rec, ok := s.index[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Feature.Geometry = g
	rec.Feature.Properties.HandleID = id
	return nil
}

// UpdateProperties сливает изменения атрибутов, геометрия не трогается
func (s *Store) UpdateProperties(id domain.HandleID, patch PropertiesPatch) error {
	rec, ok := s.index[id]
	if !ok {
		return ErrRecordNotFound
	}

	props := &rec.Feature.Properties
	if patch.Label != nil {
		props.Label = *patch.Label
	}
	switch {
	case patch.ClearOverride:
		props.AreaOverrideHa = nil
	case patch.AreaOverrideHa != nil:
		v := *patch.AreaOverrideHa
		props.AreaOverrideHa = &v
	}
	props.HandleID = id
	return nil
}

// Remove удаляет запись и возвращает её (для снятия оверлея).
// Освободившийся id повторно не выдаётся.
func (s *Store) Remove(id domain.HandleID) (*Record, error) {
	rec, ok := s.index[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	delete(s.index, id)
	for i, r := range s.records {
		if r == rec {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	return rec, nil
}

// Clear очищает набор и возвращает снятые записи. Счётчик id не сбрасывается.
func (s *Store) Clear() []*Record {
	removed := s.records
	s.records = nil
	s.index = make(map[domain.HandleID]*Record)
	return removed
}

// Find - поиск записи по id
func (s *Store) Find(id domain.HandleID) (*Record, bool) {
	rec, ok := s.index[id]
	return rec, ok
}

// Len - количество записей
func (s *Store) Len() int {
	return len(s.records)
}

// Records возвращает записи в порядке вставки. Срез - копия, записи общие.
func (s *Store) Records() []*Record {
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Features возвращает копии всех талханов в порядке вставки, без ссылок на оверлеи
func (s *Store) Features() []domain.Feature {
	out := make([]domain.Feature, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Feature.Clone())
	}
	return out
}
