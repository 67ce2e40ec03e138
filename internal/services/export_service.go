package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
)

const (
	projectsSheet     = "Projects"
	applicationsSheet = "Applications"
	exportBatchSize   = 100
)

var (
	projectHeaders     = []interface{}{"ID", "Title", "Status", "Budget", "Deadline", "Skills", "Assigned To", "Progress", "Requests", "Created At"}
	applicationHeaders = []interface{}{"ID", "Project", "Freelancer", "Status", "Message", "Created At", "Responded At"}
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportProjects(ctx context.Context, ownerID string) ([]byte, error) {
	s.logger.Info("Exporting projects", "owner_id", ownerID)

	projects, err := s.allProjects(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	apps, err := s.allApplications(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", projectsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(applicationsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	projectRows := make([][]interface{}, 0, len(projects))
	for _, p := range projects {
		assigned, progress := "", ""
		if p.AssignedToName != nil {
			assigned = *p.AssignedToName
		}
		if p.Progress != nil {
			progress = fmt.Sprintf("%d%%", *p.Progress)
		}
		projectRows = append(projectRows, []interface{}{
			p.ID, p.Title, p.Status.Label(), p.Budget, formatTime(&p.Deadline),
			strings.Join(p.Skills, ", "), assigned, progress, len(p.RequestedBy), formatTime(&p.CreatedAt),
		})
	}
	if err := writeSheet(f, projectsSheet, projectHeaders, projectRows); err != nil {
		return nil, err
	}

	appRows := make([][]interface{}, 0, len(apps))
	for _, a := range apps {
		appRows = append(appRows, []interface{}{
			a.ID, a.ProjectTitle, a.FreelancerName, string(a.Status), a.Message, formatTime(&a.CreatedAt), formatTime(a.RespondedAt),
		})
	}
	if err := writeSheet(f, applicationsSheet, applicationHeaders, appRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Projects exported", "owner_id", ownerID, "projects", len(projects), "applications", len(apps))
	return buf.Bytes(), nil
}

func (s *exportService) allProjects(ctx context.Context, ownerID string) ([]*models.Project, error) {
	var all []*models.Project
	filters := repositories.ProjectFilters{OwnerID: &ownerID, Limit: exportBatchSize, SortBy: "created_at", SortOrder: "asc"}
	for {
		batch, total, err := s.repo.Project().List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		all = append(all, batch...)
		filters.Offset += len(batch)
		if len(batch) == 0 || int64(filters.Offset) >= total {
			return all, nil
		}
	}
}

func (s *exportService) allApplications(ctx context.Context, ownerID string) ([]*models.Application, error) {
	var all []*models.Application
	filters := repositories.RequestFilters{OwnerID: &ownerID, Limit: exportBatchSize}
	for {
		batch, total, err := s.repo.Application().List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list applications: %w", err)
		}
		all = append(all, batch...)
		filters.Offset += len(batch)
		if len(batch) == 0 || int64(filters.Offset) >= total {
			return all, nil
		}
	}
}

func writeSheet(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
