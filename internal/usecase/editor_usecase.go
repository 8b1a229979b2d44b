package usecase

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/domain/repository"
	"github.com/talhao-editor/internal/editor"
	"github.com/talhao-editor/internal/geometry/area"
	"github.com/talhao-editor/internal/geometry/reproject"
	"github.com/talhao-editor/internal/importer"
	"github.com/talhao-editor/internal/pkg/errors"
	"github.com/talhao-editor/internal/pkg/metrics"
	"github.com/talhao-editor/internal/pkg/utils"
	"github.com/talhao-editor/internal/render/scene"
	"github.com/talhao-editor/internal/repository/s3archive"
	"github.com/talhao-editor/internal/usecase/dto"
)

// EditorConfig - ограничения сессий редактора
type EditorConfig struct {
	SessionTTL  time.Duration
	MaxFeatures int
	Projection  reproject.Projection
}

// sessionEntry - сессия и её холст
type sessionEntry struct {
	session *editor.Session
	canvas  *scene.Canvas
}

// EditorUseCase управляет сессиями редактора талханов: импорт, команды карты,
// сохранение и загрузка ферм
type EditorUseCase struct {
	farmRepo   repository.FarmRepository
	farms      *FarmUseCase
	streamRepo repository.StreamRepository
	archive    repository.ArchiveRepository // nil - архив отключён
	normalizer *importer.Normalizer
	metrics    *metrics.Metrics
	cfg        EditorConfig
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
	now      func() time.Time
}

// NewEditorUseCase создает новый экземпляр EditorUseCase
func NewEditorUseCase(
	farmRepo repository.FarmRepository,
	farms *FarmUseCase,
	streamRepo repository.StreamRepository,
	archive repository.ArchiveRepository,
	m *metrics.Metrics,
	cfg EditorConfig,
	logger *zap.Logger,
) *EditorUseCase {
	if m == nil {
		m = metrics.New(nil)
	}
	return &EditorUseCase{
		farmRepo:   farmRepo,
		farms:      farms,
		streamRepo: streamRepo,
		archive:    archive,
		normalizer: importer.NewNormalizer(cfg.Projection),
		metrics:    m,
		cfg:        cfg,
		logger:     logger,
		sessions:   make(map[uuid.UUID]*sessionEntry),
		now:        time.Now,
	}
}

// CreateSession открывает новую сессию с пустым черновиком
func (uc *EditorUseCase) CreateSession() *dto.SessionResponse {
	canvas := scene.NewCanvas()
	s := editor.NewSession(canvas, uc.logger)

	uc.mu.Lock()
	uc.sessions[s.ID] = &sessionEntry{session: s, canvas: canvas}
	count := len(uc.sessions)
	uc.mu.Unlock()

	uc.metrics.ActiveSessions.Set(float64(count))
	uc.logger.Info("Editor session created", zap.String("session_id", s.ID.String()))
	return sessionResponse(s)
}

// GetSession возвращает состояние сессии
func (uc *EditorUseCase) GetSession(id uuid.UUID) (*dto.SessionResponse, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}
	return sessionResponse(entry.session), nil
}

// Import разбирает загруженный файл и добавляет талханы в сессию
func (uc *EditorUseCase) Import(ctx context.Context, id uuid.UUID, filename string, data []byte) (*dto.ImportReport, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}
	log := uc.logger.With(
		zap.String("session_id", id.String()),
		zap.String("filename", filename))

	parsed, kind, err := importer.ParseFile(filename, data)
	if err != nil {
		return nil, uc.importError(log, kind, err)
	}

	res, err := uc.normalizer.Normalize(parsed, kind)
	if err != nil {
		return nil, uc.importError(log, kind, err)
	}

	if total := entry.session.ImportCapacity(len(res.Features)); uc.cfg.MaxFeatures > 0 && total > uc.cfg.MaxFeatures {
		uc.metrics.Imports.WithLabelValues(string(kind), metrics.ResultError).Inc()
		return nil, errors.ErrTooManyFeatures.WithDetails(map[string]interface{}{
			"features": total,
			"max":      uc.cfg.MaxFeatures,
		})
	}

	ids, err := entry.session.Import(res.Features)
	if err != nil {
		uc.metrics.Imports.WithLabelValues(string(kind), metrics.ResultError).Inc()
		log.Error("Failed to add imported parcels", zap.Error(err))
		return nil, errors.ErrInternalServer
	}

	report := &dto.ImportReport{
		ImportID:    uuid.New(),
		Kind:        string(kind),
		Shape:       res.Shape,
		Imported:    len(ids),
		Skipped:     res.Skipped,
		PointErrors: res.PointErrors,
		HandleIDs:   ids,
		TotalHa:     area.ComputeTotalHa(res.Features),
	}
	for _, idx := range res.Suspect {
		if idx < len(ids) {
			report.Suspect = append(report.Suspect, ids[idx])
		}
	}
	for _, f := range res.Features {
		if !f.Properties.HasAreaOverride() && area.IsDegenerate(f.Geometry) {
			report.Degenerate++
		}
	}
	if b := entry.session.Bounds(); b.Valid {
		report.BBox = utils.BBox(b.Bound)
	}

	uc.metrics.Imports.WithLabelValues(string(kind), metrics.ResultOK).Inc()
	uc.metrics.FeaturesImported.Add(float64(report.Imported))
	uc.metrics.FeaturesSkipped.Add(float64(report.Skipped))
	uc.metrics.ReprojectFailures.Add(float64(report.PointErrors))
	uc.metrics.SuspectFeatures.Add(float64(len(report.Suspect)))
	uc.metrics.Degenerate.Add(float64(report.Degenerate))

	if report.PointErrors > 0 {
		log.Warn("Points left unconverted during reprojection",
			zap.Int("points", report.PointErrors),
			zap.Int("suspect_parcels", len(report.Suspect)),
			zap.Int("epsg", uc.cfg.Projection.EPSG()))
	}
	if report.Skipped > 0 {
		log.Info("Import items without geometry skipped", zap.Int("skipped", report.Skipped))
	}

	report.Archived = uc.archiveUpload(ctx, log, report.ImportID, filename, kind, data)

	log.Info("File imported",
		zap.String("kind", report.Kind),
		zap.String("shape", report.Shape),
		zap.Int("imported", report.Imported),
		zap.Float64("total_ha", report.TotalHa))
	return report, nil
}

// Dispatch применяет команду карты к сессии
func (uc *EditorUseCase) Dispatch(id uuid.UUID, cmd editor.Command) (*editor.CommandResult, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}

	if created, ok := cmd.(editor.ShapeCreated); ok {
		created.Geometry = uc.toGeographic(id, created.Geometry)
		cmd = created
	}
	if edited, ok := cmd.(editor.ShapeEdited); ok {
		edited.Geometry = uc.toGeographic(id, edited.Geometry)
		cmd = edited
	}

	if _, ok := cmd.(editor.ShapeCreated); ok && uc.cfg.MaxFeatures > 0 && entry.session.Len() >= uc.cfg.MaxFeatures {
		return nil, errors.ErrTooManyFeatures
	}

	res, err := entry.session.Dispatch(cmd)
	switch {
	case stderrors.Is(err, editor.ErrReadOnly):
		return nil, errors.ErrReadOnlySession
	case stderrors.Is(err, editor.ErrUnknownCommand):
		return nil, errors.ErrInvalidRequest.WithMessage(err.Error())
	case err != nil:
		uc.logger.Error("Command failed",
			zap.String("session_id", id.String()),
			zap.String("command", cmd.Name()),
			zap.Error(err))
		return nil, errors.ErrInternalServer
	}

	uc.metrics.Commands.WithLabelValues(res.Command, strconv.FormatBool(res.Found)).Inc()
	return res, nil
}

// Scene возвращает оверлеи сессии для карты
func (uc *EditorUseCase) Scene(id uuid.UUID) (*dto.SceneResponse, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}

	b := entry.session.Bounds()
	resp := &dto.SceneResponse{
		Mode:     entry.session.Mode(),
		Overlays: entry.canvas.FeatureCollection(),
		Suspect:  b.Suspect,
	}
	if b.Valid {
		resp.BBox = utils.BBox(b.Bound)
	}
	return resp, nil
}

// Summary - сводка талханов и итоговая площадь перед сохранением
func (uc *EditorUseCase) Summary(id uuid.UUID) (*editor.Summary, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}
	sum := entry.session.Summary()
	return &sum, nil
}

// Save сохраняет черновик: обновляет ферму, открытую на редактирование,
// иначе создаёт новую. После успеха сессия сбрасывается в пустой черновик,
// если её не меняли во время записи.
func (uc *EditorUseCase) Save(ctx context.Context, id uuid.UUID, req *dto.SaveFarmRequest) (*dto.SaveFarmResponse, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}

	plan, err := entry.session.PrepareSave(req.Code, req.Name, req.Owner)
	switch {
	case stderrors.Is(err, editor.ErrReadOnly):
		return nil, errors.ErrReadOnlySession
	case stderrors.Is(err, editor.ErrEmptyDraft):
		return nil, errors.ErrEmptyDraft
	case err != nil:
		return nil, err
	}
	draft := plan.Draft

	resp := &dto.SaveFarmResponse{Parcels: len(draft.Features), AreaHa: draft.AreaHa}
	if plan.FarmID != nil {
		farmID := *plan.FarmID
		if err := uc.farmRepo.Update(ctx, farmID, draft); err != nil {
			return nil, err
		}
		resp.FarmID = farmID
		resp.Updated = true
		uc.farms.InvalidateFarm(ctx, farmID)
		uc.metrics.FarmsSaved.WithLabelValues("update").Inc()
	} else {
		newID, err := uc.farmRepo.Create(ctx, draft)
		if err != nil {
			return nil, err
		}
		resp.FarmID = newID
		uc.metrics.FarmsSaved.WithLabelValues("insert").Inc()
	}

	uc.publishSaved(ctx, draft, resp)
	if !entry.session.CompleteSave(plan, resp.FarmID) {
		uc.logger.Info("Session changed while saving, edits kept",
			zap.String("session_id", id.String()),
			zap.Int64("farm_id", resp.FarmID))
	}

	uc.logger.Info("Farm saved",
		zap.String("session_id", id.String()),
		zap.Int64("farm_id", resp.FarmID),
		zap.Bool("updated", resp.Updated),
		zap.Int("parcels", resp.Parcels),
		zap.Float64("area_ha", resp.AreaHa))
	return resp, nil
}

// LoadFarm пересобирает сессию из сохранённой фермы
func (uc *EditorUseCase) LoadFarm(ctx context.Context, id uuid.UUID, req dto.LoadFarmRequest) (*dto.SessionResponse, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}

	farm, err := uc.farms.GetFarm(ctx, req.FarmID)
	if err != nil {
		return nil, err
	}

	if _, err := entry.session.LoadFarm(farm, req.Editable()); err != nil {
		uc.logger.Error("Failed to load farm into session",
			zap.String("session_id", id.String()),
			zap.Int64("farm_id", req.FarmID),
			zap.Error(err))
		return nil, errors.ErrInternalServer
	}

	uc.logger.Info("Farm loaded",
		zap.String("session_id", id.String()),
		zap.Int64("farm_id", farm.ID),
		zap.Bool("editable", req.Editable()),
		zap.Int("parcels", len(farm.Features)))
	return sessionResponse(entry.session), nil
}

// StartDraft сбрасывает сессию в новый пустой черновик
func (uc *EditorUseCase) StartDraft(id uuid.UUID) (*dto.SessionResponse, error) {
	entry, err := uc.entry(id)
	if err != nil {
		return nil, err
	}
	entry.session.StartDraft()
	return sessionResponse(entry.session), nil
}

// CloseSession отменяет работу: снимает все оверлеи и удаляет сессию
func (uc *EditorUseCase) CloseSession(id uuid.UUID) error {
	uc.mu.Lock()
	entry, ok := uc.sessions[id]
	delete(uc.sessions, id)
	count := len(uc.sessions)
	uc.mu.Unlock()

	if !ok {
		return errors.ErrSessionNotFound
	}
	entry.session.Cancel()
	uc.metrics.ActiveSessions.Set(float64(count))

	uc.logger.Info("Editor session closed", zap.String("session_id", id.String()))
	return nil
}

// CleanupExpired закрывает сессии без активности дольше TTL
func (uc *EditorUseCase) CleanupExpired() int {
	if uc.cfg.SessionTTL <= 0 {
		return 0
	}
	deadline := uc.now().Add(-uc.cfg.SessionTTL)

	uc.mu.Lock()
	var expired []*sessionEntry
	for id, entry := range uc.sessions {
		if entry.session.LastActive().Before(deadline) {
			expired = append(expired, entry)
			delete(uc.sessions, id)
		}
	}
	count := len(uc.sessions)
	uc.mu.Unlock()

	for _, entry := range expired {
		entry.session.Cancel()
	}
	if len(expired) > 0 {
		uc.metrics.ActiveSessions.Set(float64(count))
		uc.logger.Info("Expired editor sessions closed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunJanitor периодически закрывает просроченные сессии до отмены ctx
func (uc *EditorUseCase) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.CleanupExpired()
		}
	}
}

func (uc *EditorUseCase) entry(id uuid.UUID) (*sessionEntry, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	entry, ok := uc.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return entry, nil
}

func (uc *EditorUseCase) importError(log *zap.Logger, kind importer.FileKind, err error) error {
	var malformed *importer.MalformedImportError
	switch {
	case stderrors.Is(err, importer.ErrUnsupportedFile):
		uc.metrics.Imports.WithLabelValues("unknown", metrics.ResultUnsupported).Inc()
		log.Warn("Unsupported import file", zap.Error(err))
		return errors.ErrUnsupportedFile
	case stderrors.As(err, &malformed):
		uc.metrics.Imports.WithLabelValues(string(kind), metrics.ResultMalformed).Inc()
		log.Warn("Could not read import file",
			zap.String("kind", string(kind)),
			zap.String("type", malformed.TypeName),
			zap.Error(err))
		return errors.ErrMalformedImport.WithDetails(map[string]interface{}{
			"kind": string(kind),
			"type": malformed.TypeName,
		})
	default:
		uc.metrics.Imports.WithLabelValues(string(kind), metrics.ResultError).Inc()
		log.Error("Import failed", zap.Error(err))
		return errors.ErrInternalServer
	}
}

// toGeographic переводит нарисованный контур в градусы, если клиент прислал
// метрические координаты
func (uc *EditorUseCase) toGeographic(id uuid.UUID, g orb.Geometry) orb.Geometry {
	out, errs := uc.cfg.Projection.Geometry(g)
	if len(errs) > 0 {
		uc.logger.Warn("Drawn shape has points outside projection range",
			zap.String("session_id", id.String()),
			zap.Int("points", len(errs)))
	}
	return out
}

func (uc *EditorUseCase) archiveUpload(ctx context.Context, log *zap.Logger, importID uuid.UUID, filename string, kind importer.FileKind, data []byte) string {
	if uc.archive == nil {
		return ""
	}

	key := s3archive.ImportKey(importID, filename, uc.now())
	if err := uc.archive.Put(ctx, key, data, contentType(kind)); err != nil {
		// архив вспомогательный, импорт уже применён
		log.Warn("Failed to archive import file", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

func (uc *EditorUseCase) publishSaved(ctx context.Context, draft *domain.FarmDraft, resp *dto.SaveFarmResponse) {
	if uc.streamRepo == nil {
		return
	}

	event := &domain.FarmSavedEvent{
		EventID: uuid.New(),
		FarmID:  resp.FarmID,
		Code:    draft.Code,
		Owner:   draft.Owner,
		AreaHa:  draft.AreaHa,
		Parcels: len(draft.Features),
		Updated: resp.Updated,
		SavedAt: uc.now().UTC(),
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamFarmSaved, event); err != nil {
		// ферма уже сохранена; статистика догонит при следующем событии
		uc.logger.Warn("Failed to publish farm saved event",
			zap.Int64("farm_id", resp.FarmID),
			zap.Error(err))
	}
}

func contentType(kind importer.FileKind) string {
	switch kind {
	case importer.KindArchive:
		return "application/zip"
	case importer.KindGeoJSON:
		return "application/geo+json"
	case importer.KindShapefile:
		return "application/x-esri-shape"
	default:
		return "application/octet-stream"
	}
}

func sessionResponse(s *editor.Session) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:        s.ID,
		Mode:      s.Mode(),
		Parcels:   s.Len(),
		CreatedAt: s.CreatedAt,
	}
	if farmID, ok := s.FarmID(); ok {
		resp.FarmID = &farmID
	}
	return resp
}
