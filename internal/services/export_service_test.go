package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/campus-gigs/marketplace-service/internal/models"
)

func TestExportService_ExportProjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	other := seedUser(t, env.repo, models.RoleTeacher, "Otto")
	freelancer := seedUser(t, env.repo, models.RoleStudent, "Sam")

	project := seedProject(t, env.repo, owner)
	seedProject(t, env.repo, owner)
	seedProject(t, env.repo, other)
	if _, err := env.requests().Apply(ctx, project.ID, &ApplyRequest{Message: "pick me"}, freelancer.ID); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, err := NewExportService(env.repo, testLogger()).ExportProjects(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ExportProjects() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	projectRows, err := f.GetRows(projectsSheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", projectsSheet, err)
	}
	if len(projectRows) != 3 {
		t.Fatalf("project rows = %d, want header plus 2", len(projectRows))
	}
	if projectRows[0][1] != "Title" || projectRows[1][2] != models.ProjectOpen.Label() {
		t.Errorf("project rows = %v", projectRows)
	}

	appRows, err := f.GetRows(applicationsSheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", applicationsSheet, err)
	}
	if len(appRows) != 2 {
		t.Fatalf("application rows = %d, want header plus 1", len(appRows))
	}
	if appRows[1][2] != "Sam" || appRows[1][3] != string(models.RequestPending) || appRows[1][4] != "pick me" {
		t.Errorf("application row = %v", appRows[1])
	}
}

func TestExportService_EmptyWorkbook(t *testing.T) {
	env := newTestEnv(t)
	owner := seedUser(t, env.repo, models.RoleAlumni, "Olivia")

	data, err := NewExportService(env.repo, testLogger()).ExportProjects(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ExportProjects() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != projectsSheet {
		t.Errorf("sheets = %v", sheets)
	}
	rows, _ := f.GetRows(projectsSheet)
	if len(rows) != 1 {
		t.Errorf("project rows = %d, want only the header", len(rows))
	}
}
