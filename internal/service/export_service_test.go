package service

import (
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
)

func TestExportService_ExportTheses(t *testing.T) {
	env := newTestEnv()
	svc := NewExportService(env.repo, env.clock, zap.NewNop())

	evaluating := env.seedThesis(model.StatusUnderEvaluation)
	env.seedDeadline(evaluating.ThesisID, model.DeadlineDefense, testNow.AddDate(0, 0, 30))
	env.seedDeadline(evaluating.ThesisID, model.DeadlineCommitteeEvaluation, testNow.AddDate(0, 0, 2)) // 周三，剩余 2 个工作日
	env.seedThesis(model.StatusDraft)
	env.seedThesis(model.StatusDraft)

	buf, filename, err := svc.ExportTheses(context.Background(), &dto.ThesisListRequest{}, adminActor)
	if err != nil {
		t.Fatalf("ExportTheses 失败: %v", err)
	}
	if filename != "论文进度_20260302.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != thesisSheet || sheets[1] != statusSheet {
		t.Fatalf("Sheet 列表不符: %v", sheets)
	}

	rows, err := f.GetRows(thesisSheet)
	if err != nil {
		t.Fatalf("读取论文 Sheet 失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("期望表头 + 3 行，实际 %d 行", len(rows))
	}
	if rows[0][0] != "题目" || len(rows[0]) != len(thesisHeaders) {
		t.Errorf("表头不符: %v", rows[0])
	}
	first := rows[1]
	if first[4] != workflow.StatusLabel(model.StatusUnderEvaluation) {
		t.Errorf("状态列不符: %s", first[4])
	}
	if first[5] != workflow.DeadlineTypeLabel(model.DeadlineCommitteeEvaluation) || first[6] != "2026-03-04" || first[7] != "2" {
		t.Errorf("期望展示最早到期的评审期限，实际 %v", first[5:])
	}
	if rows[2][5] != "-" {
		t.Errorf("无期限时应显示 -，实际 %q", rows[2][5])
	}

	stats, _ := f.GetRows(statusSheet)
	last := stats[len(stats)-1]
	if last[0] != "合计" || last[1] != "3" {
		t.Errorf("合计行不符: %v", last)
	}
	if len(stats) != 4 {
		t.Errorf("期望表头 + 2 个状态 + 合计，实际 %d 行", len(stats))
	}
}

func TestExportService_ExportTheses_CoordinatorScope(t *testing.T) {
	env := newTestEnv()
	svc := NewExportService(env.repo, env.clock, zap.NewNop())
	env.careers.careers["career-9"] = &model.Career{CareerID: "career-9", Name: "医学", FacultyID: "faculty-9", IsActive: true}
	env.seedThesis(model.StatusDraft)
	other := env.seedThesis(model.StatusDraft)
	env.theses.theses[other.ThesisID].CareerID = "career-9"

	coordinator := workflow.Actor{ID: userCoordinator, Roles: []string{model.RoleFaculty, model.RoleCoordinator}, FacultyID: testFaculty}
	buf, _, err := svc.ExportTheses(context.Background(), &dto.ThesisListRequest{}, coordinator)
	if err != nil {
		t.Fatalf("ExportTheses 失败: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(thesisSheet)
	if len(rows) != 2 {
		t.Errorf("协调员只应导出本学院 1 篇论文，实际 %d 行数据", len(rows)-1)
	}
}

func TestExportService_ExportTheses_InvalidStatus(t *testing.T) {
	env := newTestEnv()
	svc := NewExportService(env.repo, env.clock, zap.NewNop())

	_, _, err := svc.ExportTheses(context.Background(), &dto.ThesisListRequest{Status: "NOPE"}, adminActor)
	if err != ErrThesisStatusInvalid {
		t.Errorf("期望 ErrThesisStatusInvalid，实际 %v", err)
	}
}

func TestColName(t *testing.T) {
	tests := []struct {
		idx  int
		want string
	}{
		{0, "A"}, {7, "H"}, {25, "Z"}, {26, "AA"},
	}
	for _, tt := range tests {
		if got := colName(tt.idx); got != tt.want {
			t.Errorf("colName(%d)=%s，期望 %s", tt.idx, got, tt.want)
		}
	}
	if got := cell("B", 12); !strings.EqualFold(got, "B12") {
		t.Errorf("cell 结果不符: %s", got)
	}
}
