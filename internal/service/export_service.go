package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// 文件包含两个 Sheet：
//   - "论文"：每篇论文一行，附进行中期限及剩余工作日
//   - "状态统计"：按状态计数
type ExportService interface {
	ExportTheses(ctx context.Context, req *dto.ThesisListRequest, actor workflow.Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, clk clock.Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, clock: clk, logger: logger}
}

const (
	thesisSheet = "论文"
	statusSheet = "状态统计"
)

var thesisHeaders = []string{"题目", "专业", "作者", "学位", "状态", "进行中期限", "截止日期", "剩余工作日"}

func (s *exportService) ExportTheses(ctx context.Context, req *dto.ThesisListRequest, actor workflow.Actor) (*bytes.Buffer, string, error) {
	filter, err := scopedThesisFilter(req, actor)
	if err != nil {
		return nil, "", err
	}

	// 1. 查询论文（不分页）
	theses, _, err := s.repo.Thesis.List(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("查询导出论文失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 作者姓名
	authorIDs := make([]string, 0, len(theses))
	for _, t := range theses {
		authorIDs = append(authorIDs, t.AuthorID)
	}
	users, err := s.repo.User.ListByIDs(ctx, authorIDs)
	if err != nil {
		s.logger.Error("查询作者信息失败", zap.Error(err))
		return nil, "", err
	}
	names := make(map[string]string, len(users))
	for i := range users {
		names[users[i].UserID] = users[i].FullName()
	}

	// 3. 进行中期限：每篇论文取最早到期的一条
	active, err := s.repo.Deadline.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询进行中期限失败", zap.Error(err))
		return nil, "", err
	}
	nearest := make(map[string]*model.Deadline, len(active))
	for i := range active {
		d := &active[i]
		if cur, ok := nearest[d.ThesisID]; !ok || d.DueDate.Before(cur.DueDate) {
			nearest[d.ThesisID] = d
		}
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(thesisSheet)
	f.SetActiveSheet(idx)
	f.NewSheet(statusSheet)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	urgentStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})

	f.SetColWidth(thesisSheet, "A", "A", 48)
	f.SetColWidth(thesisSheet, "B", "C", 22)
	f.SetColWidth(thesisSheet, "D", "F", 16)
	f.SetColWidth(thesisSheet, "G", "H", 14)
	for i, h := range thesisHeaders {
		f.SetCellValue(thesisSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(thesisSheet, "A1", cell(colName(len(thesisHeaders)-1), 1), headerStyle)

	now := s.clock.Now()
	counts := make(map[model.ThesisStatus]int, len(model.AllThesisStatuses))
	row := 2
	for i := range theses {
		t := &theses[i]
		counts[t.Status]++

		careerName := t.CareerID
		if t.Career != nil {
			careerName = t.Career.Name
		}
		f.SetCellValue(thesisSheet, cell("A", row), t.Title)
		f.SetCellValue(thesisSheet, cell("B", row), careerName)
		f.SetCellValue(thesisSheet, cell("C", row), names[t.AuthorID])
		f.SetCellValue(thesisSheet, cell("D", row), t.AcademicDegree)
		f.SetCellValue(thesisSheet, cell("E", row), workflow.StatusLabel(t.Status))

		if d, ok := nearest[t.ThesisID]; ok {
			remaining := clock.CountBusinessDaysBetween(now, d.DueDate)
			f.SetCellValue(thesisSheet, cell("F", row), workflow.DeadlineTypeLabel(d.Type))
			f.SetCellValue(thesisSheet, cell("G", row), d.DueDate.Format("2006-01-02"))
			f.SetCellValue(thesisSheet, cell("H", row), remaining)
			if remaining <= 3 {
				f.SetCellStyle(thesisSheet, cell("H", row), cell("H", row), urgentStyle)
			}
		} else {
			f.SetCellValue(thesisSheet, cell("F", row), "-")
		}
		row++
	}

	// 状态统计按流程顺序输出，空状态跳过
	f.SetColWidth(statusSheet, "A", "A", 20)
	f.SetCellValue(statusSheet, "A1", "状态")
	f.SetCellValue(statusSheet, "B1", "数量")
	f.SetCellStyle(statusSheet, "A1", "B1", headerStyle)
	row = 2
	for _, st := range model.AllThesisStatuses {
		if counts[st] == 0 {
			continue
		}
		f.SetCellValue(statusSheet, cell("A", row), workflow.StatusLabel(st))
		f.SetCellValue(statusSheet, cell("B", row), counts[st])
		row++
	}
	f.SetCellValue(statusSheet, cell("A", row), "合计")
	f.SetCellValue(statusSheet, cell("B", row), len(theses))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("论文进度_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
