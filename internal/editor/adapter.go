package editor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/geometry/area"
	"github.com/talhao-editor/internal/geometry/reproject"
)

// ErrReadOnly - команда изменения в режиме просмотра
var ErrReadOnly = errors.New("parcel set is read-only")

// ErrUnknownCommand - команда вне закрытого набора
var ErrUnknownCommand = errors.New("unknown editor command")

// Adapter связывает хранилище записей с оверлеями: переводит мутации
// в перерисовку, а события карты - в мутации хранилища.
type Adapter struct {
	store    *Store
	renderer Renderer
	mode     Mode
	logger   *zap.Logger
}

// NewAdapter создает адаптер над хранилищем
func NewAdapter(store *Store, renderer Renderer, mode Mode, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		store:    store,
		renderer: renderer,
		mode:     mode,
		logger:   logger,
	}
}

// Mode - текущий режим отрисовки
func (a *Adapter) Mode() Mode {
	return a.mode
}

// Store - хранилище записей адаптера
func (a *Adapter) Store() *Store {
	return a.store
}

// Dispatch обрабатывает одну команду карты
func (a *Adapter) Dispatch(cmd Command) (*CommandResult, error) {
	if cmd == nil {
		return nil, ErrUnknownCommand
	}
	if a.mode == ModeReadOnly {
		return nil, fmt.Errorf("%s: %w", cmd.Name(), ErrReadOnly)
	}

	switch c := cmd.(type) {
	case ShapeCreated:
		return a.shapeCreated(c)
	case ShapeEdited:
		return a.shapeEdited(c)
	case AttributesEdited:
		return a.attributesEdited(c)
	case ShapeRemoved:
		return a.shapeRemoved(c)
	default:
		return nil, fmt.Errorf("%s: %w", cmd.Name(), ErrUnknownCommand)
	}
}

func (a *Adapter) shapeCreated(c ShapeCreated) (*CommandResult, error) {
	f := domain.Feature{
		Geometry:   c.Geometry,
		Properties: domain.Properties{Label: a.nextLabel()},
	}

	id, err := a.AddFeature(f)
	if err != nil {
		return nil, err
	}
	return a.result(c.Name(), id), nil
}

func (a *Adapter) shapeEdited(c ShapeEdited) (*CommandResult, error) {
	if err := a.store.UpdateGeometry(c.HandleID, c.Geometry); err != nil {
		return a.notFound(c.Name(), c.HandleID, err), nil
	}

	rec, _ := a.store.Find(c.HandleID)
	if rec.RenderHandle != nil {
		if err := a.renderer.SetGeometry(rec.RenderHandle, c.Geometry); err != nil {
			return nil, fmt.Errorf("update overlay geometry: %w", err)
		}
	}
	if err := a.refresh(rec); err != nil {
		return nil, err
	}
	return a.result(c.Name(), c.HandleID), nil
}

func (a *Adapter) attributesEdited(c AttributesEdited) (*CommandResult, error) {
	label := c.Label
	patch := PropertiesPatch{Label: &label, AreaOverrideHa: c.AreaHa, ClearOverride: c.AreaHa == nil}
	if err := a.store.UpdateProperties(c.HandleID, patch); err != nil {
		return a.notFound(c.Name(), c.HandleID, err), nil
	}

	rec, _ := a.store.Find(c.HandleID)
	if err := a.refresh(rec); err != nil {
		return nil, err
	}
	return a.result(c.Name(), c.HandleID), nil
}

func (a *Adapter) shapeRemoved(c ShapeRemoved) (*CommandResult, error) {
	rec, err := a.store.Remove(c.HandleID)
	if err != nil {
		return a.notFound(c.Name(), c.HandleID, err), nil
	}
	a.removeOverlay(rec)
	return &CommandResult{Command: c.Name(), HandleID: c.HandleID, Found: true}, nil
}

// AddFeature вставляет готовый талхан (импорт, загрузка фермы, новый контур)
// и создаёт для него оверлей в стиле текущего режима
func (a *Adapter) AddFeature(f domain.Feature) (domain.HandleID, error) {
	id := a.store.Insert(f, nil)

	rec, _ := a.store.Find(id)
	handle, err := a.renderer.CreateOverlay(id, rec.Feature.Geometry, StyleFor(a.mode))
	if err != nil {
		// без оверлея запись бесполезна: откатываем вставку
		_, _ = a.store.Remove(id)
		return 0, fmt.Errorf("create overlay: %w", err)
	}
	if err := a.store.BindHandle(id, handle); err != nil {
		return 0, err
	}

	if a.mode == ModeDraft {
		err = a.renderer.AttachEditForm(handle, a.editForm(rec))
	} else {
		err = a.renderer.AttachInfoPopup(handle, InfoPopupHTML(rec.Feature.Properties.Label, area.ComputeHa(rec.Feature)))
	}
	if err != nil {
		return 0, fmt.Errorf("attach overlay affordance: %w", err)
	}

	if err := a.refresh(rec); err != nil {
		return 0, err
	}
	return id, nil
}

// nextLabel - подпись нового контура: больше любой числовой подписи набора
// и не меньше номера по порядку, так что после удаления номера не повторяются
func (a *Adapter) nextLabel() string {
	next := a.store.Len() + 1
	for _, rec := range a.store.Records() {
		if n, err := strconv.Atoi(rec.Feature.Properties.Label); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.Itoa(next)
}

// Reset снимает все оверлеи, очищает хранилище и переключает режим
func (a *Adapter) Reset(mode Mode) {
	for _, rec := range a.store.Clear() {
		a.removeOverlay(rec)
	}
	a.mode = mode
}

// Bounds - объединённые границы всех оверлеев. Талханы с границами вне
// географического диапазона (непереведённые точки) возвращаются как подозрительные.
func (a *Adapter) Bounds() (orb.Bound, bool, []domain.HandleID) {
	var (
		total   orb.Bound
		valid   bool
		suspect []domain.HandleID
	)

	for _, rec := range a.store.Records() {
		if rec.RenderHandle == nil {
			continue
		}
		b, ok := a.renderer.Bounds(rec.RenderHandle)
		if !ok || !reproject.IsGeographic(b.Min) || !reproject.IsGeographic(b.Max) {
			suspect = append(suspect, rec.HandleID)
			continue
		}
		if !valid {
			total, valid = b, true
			continue
		}
		total = total.Union(b)
	}
	return total, valid, suspect
}

// refresh перерисовывает подпись (и форму в черновике) из текущих свойств
func (a *Adapter) refresh(rec *Record) error {
	if rec.RenderHandle == nil {
		return nil
	}

	areaHa := a.areaOf(rec)
	if err := a.renderer.SetLabel(rec.RenderHandle, LabelHTML(rec.Feature.Properties.Label, areaHa)); err != nil {
		return fmt.Errorf("set overlay label: %w", err)
	}
	if a.mode == ModeDraft {
		if err := a.renderer.AttachEditForm(rec.RenderHandle, a.editForm(rec)); err != nil {
			return fmt.Errorf("attach edit form: %w", err)
		}
	}
	return nil
}

func (a *Adapter) areaOf(rec *Record) float64 {
	areaHa := area.ComputeHa(rec.Feature)
	if !rec.Feature.Properties.HasAreaOverride() && area.IsDegenerate(rec.Feature.Geometry) {
		a.logger.Warn("Degenerate geometry, area shown as 0",
			zap.Stringer("handle_id", rec.HandleID),
			zap.String("label", rec.Feature.Properties.Label))
	}
	return areaHa
}

func (a *Adapter) editForm(rec *Record) EditForm {
	return EditForm{
		HandleID: rec.HandleID,
		Label:    rec.Feature.Properties.Label,
		AreaHa:   area.ComputeHa(rec.Feature),
	}
}

func (a *Adapter) removeOverlay(rec *Record) {
	if rec.RenderHandle == nil {
		return
	}
	if err := a.renderer.RemoveOverlay(rec.RenderHandle); err != nil {
		a.logger.Warn("Failed to remove overlay",
			zap.Stringer("handle_id", rec.HandleID),
			zap.Error(err))
	}
}

func (a *Adapter) notFound(command string, id domain.HandleID, err error) *CommandResult {
	a.logger.Warn("Command targets unknown record, ignored",
		zap.String("command", command),
		zap.Stringer("handle_id", id),
		zap.Error(err))
	return &CommandResult{Command: command, HandleID: id, Found: false}
}

func (a *Adapter) result(command string, id domain.HandleID) *CommandResult {
	rec, _ := a.store.Find(id)
	return &CommandResult{
		Command:  command,
		HandleID: id,
		Found:    true,
		Label:    rec.Feature.Properties.Label,
		AreaHa:   area.ComputeHa(rec.Feature),
	}
}
