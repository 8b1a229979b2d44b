package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/geometry/area"
)

// ErrEmptyDraft - попытка сохранить пустой набор
var ErrEmptyDraft = errors.New("draft has no parcels")

// SummaryRow - строка сводки перед сохранением
type SummaryRow struct {
	HandleID domain.HandleID `json:"handle_id"`
	Label    string          `json:"label"`
	AreaHa   float64         `json:"area_ha"`
}

// Summary - сводка набора: талханы и итоговая площадь
type Summary struct {
	Mode    Mode         `json:"mode"`
	FarmID  *int64       `json:"farm_id,omitempty"`
	Rows    []SummaryRow `json:"rows"`
	TotalHa float64      `json:"total_ha"`
}

// FitBounds - границы для подгонки карты
type FitBounds struct {
	Bound   orb.Bound         `json:"-"`
	Valid   bool              `json:"valid"`
	Suspect []domain.HandleID `json:"suspect,omitempty"`
}

// SavePlan - снимок набора для сохранения. FarmID и Generation сняты под тем же
// замком, что и талханы.
type SavePlan struct {
	Draft      *domain.FarmDraft
	FarmID     *int64
	Generation uint64
	epoch      uint64
}

// Session - единственный владелец хранилища талханов одного экрана редактора.
// Все операции сериализуются мьютексом сессии.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu         sync.Mutex
	farmID     *int64
	adapter    *Adapter
	lastActive time.Time

	// generation растёт при каждом изменении набора, epoch - при каждом сбросе
	generation uint64
	epoch      uint64
}

// NewSession создает сессию с пустым черновиком
func NewSession(renderer Renderer, logger *zap.Logger) *Session {
	now := time.Now()
	id := uuid.New()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		ID:         id,
		CreatedAt:  now,
		adapter:    NewAdapter(NewStore(), renderer, ModeDraft, logger.With(zap.String("session_id", id.String()))),
		lastActive: now,
	}
}

// Mode - текущий режим
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Mode()
}

// FarmID - id фермы, открытой в сессии (редактирование или просмотр)
func (s *Session) FarmID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.farmID == nil {
		return 0, false
	}
	return *s.farmID, true
}

// LastActive - время последнего обращения
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Len - количество талханов
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Store().Len()
}

// StartDraft сбрасывает сессию в новый пустой черновик
func (s *Session) StartDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.reset(ModeDraft, nil)
}

// LoadFarm пересобирает хранилище из сохранённой фермы.
// editable=false открывает ферму только для просмотра.
func (s *Session) LoadFarm(farm *domain.Farm, editable bool) ([]domain.HandleID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	mode := ModeReadOnly
	if editable {
		mode = ModeDraft
	}
	farmID := farm.ID
	s.reset(mode, &farmID)

	ids, err := s.addAll(farm.Features)
	if err != nil {
		s.reset(ModeDraft, nil)
		return nil, fmt.Errorf("load farm %d: %w", farm.ID, err)
	}
	return ids, nil
}

// Import добавляет нормализованные талханы. При редактировании сохранённой
// фермы они дописываются в конец, иначе набор сначала очищается.
func (s *Session) Import(features []domain.Feature) ([]domain.HandleID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !s.appends() {
		s.reset(ModeDraft, nil)
	}
	s.generation++
	return s.addAll(features)
}

// ImportCapacity - сколько талханов окажется в наборе после импорта n новых:
// при редактировании фермы они дописываются к существующим
func (s *Session) ImportCapacity(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appends() {
		return s.adapter.Store().Len() + n
	}
	return n
}

// Dispatch передаёт команду карты адаптеру
func (s *Session) Dispatch(cmd Command) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	res, err := s.adapter.Dispatch(cmd)
	if err == nil && res != nil && res.Found {
		s.generation++
	}
	return res, err
}

// Features - копия текущего набора без ссылок на оверлеи
func (s *Session) Features() []domain.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Store().Features()
}

// Summary - талханы с площадями и итог, тот же что уйдёт в сохранение
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	return s.summary()
}

// PrepareSave снимает данные для сохранения фермы. Handle id в копию не
// попадают: они живут только в сессии.
func (s *Session) PrepareSave(code, name, owner string) (*SavePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.adapter.Mode() == ModeReadOnly {
		return nil, ErrReadOnly
	}
	features := s.adapter.Store().Features()
	if len(features) == 0 {
		return nil, ErrEmptyDraft
	}
	for i := range features {
		features[i].Properties.HandleID = 0
	}

	plan := &SavePlan{
		Draft: &domain.FarmDraft{
			Code:     code,
			Name:     name,
			Owner:    owner,
			Features: features,
			AreaHa:   area.ComputeTotalHa(features),
		},
		Generation: s.generation,
		epoch:      s.epoch,
	}
	if s.farmID != nil {
		id := *s.farmID
		plan.FarmID = &id
	}
	return plan, nil
}

// CompleteSave завершает сохранение плана. Если набор с момента PrepareSave
// не менялся, сессия сбрасывается в пустой черновик и возвращается true.
// Иначе правки остаются, а сессия переключается на редактирование
// сохранённой фермы, чтобы следующее сохранение обновило её.
func (s *Session) CompleteSave(plan *SavePlan, farmID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation == plan.Generation && s.epoch == plan.epoch {
		s.reset(ModeDraft, nil)
		return true
	}
	if s.epoch == plan.epoch {
		s.farmID = &farmID
	}
	return false
}

// Cancel убирает все оверлеи и возвращает сессию к пустому черновику
func (s *Session) Cancel() {
	s.StartDraft()
}

// Bounds - границы набора для подгонки карты
func (s *Session) Bounds() FitBounds {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok, suspect := s.adapter.Bounds()
	return FitBounds{Bound: b, Valid: ok, Suspect: suspect}
}

func (s *Session) appends() bool {
	return s.farmID != nil && s.adapter.Mode() == ModeDraft
}

func (s *Session) reset(mode Mode, farmID *int64) {
	s.adapter.Reset(mode)
	s.farmID = farmID
	s.generation++
	s.epoch++
}

func (s *Session) addAll(features []domain.Feature) ([]domain.HandleID, error) {
	ids := make([]domain.HandleID, 0, len(features))
	for _, f := range features {
		id, err := s.adapter.AddFeature(f)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Session) summary() Summary {
	records := s.adapter.Store().Records()
	sum := Summary{
		Mode: s.adapter.Mode(),
		Rows: make([]SummaryRow, 0, len(records)),
	}
	if s.farmID != nil {
		id := *s.farmID
		sum.FarmID = &id
	}

	features := make([]domain.Feature, 0, len(records))
	for _, rec := range records {
		sum.Rows = append(sum.Rows, SummaryRow{
			HandleID: rec.HandleID,
			Label:    rec.Feature.Properties.Label,
			AreaHa:   area.ComputeHa(rec.Feature),
		})
		features = append(features, rec.Feature)
	}
	sum.TotalHa = area.ComputeTotalHa(features)
	return sum
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}
