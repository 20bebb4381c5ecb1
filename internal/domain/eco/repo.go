package eco

import (
	"context"

	"github.com/google/uuid"
)

type ReportRepo interface {
	CreateReport(ctx context.Context, r WasteReport) (uuid.UUID, error)
	GetReportByID(ctx context.Context, id uuid.UUID) (WasteReport, error)
	ListReportsByUser(ctx context.Context, userID uuid.UUID) ([]WasteReport, error)
	ListReports(ctx context.Context) ([]WasteReport, error)
	SetReportStatus(ctx context.Context, id uuid.UUID, status string) error
}

type FacilityRepo interface {
	CreateFacility(ctx context.Context, f Facility) (uuid.UUID, error)
	ListFacilities(ctx context.Context) ([]Facility, error)
}

type TrainingRepo interface {
	CreateModule(ctx context.Context, m TrainingModule) (uuid.UUID, error)
	ListModules(ctx context.Context) ([]TrainingModule, error)
}
