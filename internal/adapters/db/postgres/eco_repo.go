package postgres

import (
	"context"
	"errors"

	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/ecomanager/ecomanager/internal/domain/eco"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EcoRepo covers the content collections: waste reports, facilities and
// training modules. The schemas stay deliberately plain.
type EcoRepo struct {
	db *gorm.DB
}

func NewEcoRepo(db *gorm.DB) *EcoRepo {
	return &EcoRepo{db: db}
}

func (p *EcoRepo) CreateReport(ctx context.Context, r eco.WasteReport) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&r)
	if err := res.Error; err != nil {
		return uuid.Nil, wrapStoreErr(err, "CreateReport")
	}
	return r.ID, nil
}

func (p *EcoRepo) GetReportByID(ctx context.Context, id uuid.UUID) (eco.WasteReport, error) {
	var r eco.WasteReport
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&r)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return eco.WasteReport{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return eco.WasteReport{}, wrapStoreErr(err, "GetReportByID")
	}
	return r, nil
}

func (p *EcoRepo) ListReportsByUser(ctx context.Context, userID uuid.UUID) ([]eco.WasteReport, error) {
	var reports []eco.WasteReport
	res := p.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reports)
	if err := res.Error; err != nil {
		return nil, wrapStoreErr(err, "ListReportsByUser")
	}
	return reports, nil
}

func (p *EcoRepo) ListReports(ctx context.Context) ([]eco.WasteReport, error) {
	var reports []eco.WasteReport
	res := p.db.WithContext(ctx).Order("created_at DESC").Find(&reports)
	if err := res.Error; err != nil {
		return nil, wrapStoreErr(err, "ListReports")
	}
	return reports, nil
}

func (p *EcoRepo) SetReportStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := p.db.WithContext(ctx).Model(&eco.WasteReport{}).Where("id = ?", id).Update("status", status)
	if err := res.Error; err != nil {
		return wrapStoreErr(err, "SetReportStatus")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *EcoRepo) CreateFacility(ctx context.Context, f eco.Facility) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&f)
	if err := res.Error; err != nil {
		return uuid.Nil, wrapStoreErr(err, "CreateFacility")
	}
	return f.ID, nil
}

func (p *EcoRepo) ListFacilities(ctx context.Context) ([]eco.Facility, error) {
	var facilities []eco.Facility
	res := p.db.WithContext(ctx).Order("name").Find(&facilities)
	if err := res.Error; err != nil {
		return nil, wrapStoreErr(err, "ListFacilities")
	}
	return facilities, nil
}

func (p *EcoRepo) CreateModule(ctx context.Context, m eco.TrainingModule) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&m)
	if err := res.Error; err != nil {
		return uuid.Nil, wrapStoreErr(err, "CreateModule")
	}
	return m.ID, nil
}

func (p *EcoRepo) ListModules(ctx context.Context) ([]eco.TrainingModule, error) {
	var modules []eco.TrainingModule
	res := p.db.WithContext(ctx).Order("created_at").Find(&modules)
	if err := res.Error; err != nil {
		return nil, wrapStoreErr(err, "ListModules")
	}
	return modules, nil
}
