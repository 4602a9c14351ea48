package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/otidevv/backend-seguimiento-tesis/config"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	"github.com/otidevv/backend-seguimiento-tesis/internal/workflow"
	"github.com/otidevv/backend-seguimiento-tesis/pkg/clock"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ── Mock ThesisRepository ──

type mockThesisRepo struct {
	theses    map[string]*model.Thesis
	order     []string
	histories []model.ThesisStatusHistory
	careers   *mockCareerRepo
	jury      *mockJuryRepo
}

func newMockThesisRepo(careers *mockCareerRepo, jury *mockJuryRepo) *mockThesisRepo {
	return &mockThesisRepo{theses: make(map[string]*model.Thesis), careers: careers, jury: jury}
}

func (m *mockThesisRepo) Create(_ context.Context, thesis *model.Thesis) error {
	if thesis.ThesisID == "" {
		thesis.ThesisID = uuid.NewString()
	}
	cp := *thesis
	m.theses[thesis.ThesisID] = &cp
	m.order = append(m.order, thesis.ThesisID)
	return nil
}

// copyOf 返回副本，service 修改快照不会改到"数据库"
func (m *mockThesisRepo) copyOf(id string) (*model.Thesis, error) {
	t, ok := m.theses[id]
	if !ok || !t.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	if c, ok := m.careers.careers[cp.CareerID]; ok {
		cp.Career = c
	}
	return &cp, nil
}

func (m *mockThesisRepo) GetByID(_ context.Context, id string) (*model.Thesis, error) {
	return m.copyOf(id)
}

func (m *mockThesisRepo) GetForUpdate(_ context.Context, id string) (*model.Thesis, error) {
	return m.copyOf(id)
}

func (m *mockThesisRepo) casVersion(thesis *model.Thesis) (*model.Thesis, error) {
	stored, ok := m.theses[thesis.ThesisID]
	if !ok || stored.Version != thesis.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	return stored, nil
}

func (m *mockThesisRepo) Update(_ context.Context, thesis *model.Thesis) error {
	stored, err := m.casVersion(thesis)
	if err != nil {
		return err
	}
	stored.Title = thesis.Title
	stored.Description = thesis.Description
	stored.AcademicDegree = thesis.AcademicDegree
	stored.CoAuthorID = thesis.CoAuthorID
	stored.CoAdvisorID = thesis.CoAdvisorID
	stored.Version++
	thesis.Version = stored.Version
	return nil
}

func (m *mockThesisRepo) UpdateStatus(_ context.Context, thesis *model.Thesis) error {
	stored, err := m.casVersion(thesis)
	if err != nil {
		return err
	}
	stored.Status = thesis.Status
	stored.ApprovalDate = thesis.ApprovalDate
	stored.DefenseDate = thesis.DefenseDate
	stored.Version++
	thesis.Version = stored.Version
	return nil
}

func (m *mockThesisRepo) SoftDelete(_ context.Context, thesis *model.Thesis, _ string) error {
	stored, err := m.casVersion(thesis)
	if err != nil {
		return err
	}
	stored.IsActive = false
	stored.Version++
	thesis.IsActive = false
	thesis.Version = stored.Version
	return nil
}

func (m *mockThesisRepo) each(fn func(t *model.Thesis) bool) []model.Thesis {
	var result []model.Thesis
	for _, id := range m.order {
		t := m.theses[id]
		if t.IsActive && fn(t) {
			result = append(result, *t)
		}
	}
	return result
}

func (m *mockThesisRepo) List(_ context.Context, f repository.ThesisFilter, offset, limit int) ([]model.Thesis, int64, error) {
	result := m.each(func(t *model.Thesis) bool {
		if f.CareerID != "" && t.CareerID != f.CareerID {
			return false
		}
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		if f.AuthorID != "" && t.AuthorID != f.AuthorID {
			return false
		}
		if f.AdvisorID != "" && t.AdvisorID != f.AdvisorID {
			return false
		}
		if f.FacultyID != "" {
			c, ok := m.careers.careers[t.CareerID]
			if !ok || c.FacultyID != f.FacultyID {
				return false
			}
		}
		return true
	})
	total := int64(len(result))
	if limit > 0 {
		if offset >= len(result) {
			return nil, total, nil
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, total, nil
}

func (m *mockThesisRepo) ListByStudent(_ context.Context, userID string) ([]model.Thesis, error) {
	return m.each(func(t *model.Thesis) bool { return t.IsAuthorOrCoAuthor(userID) }), nil
}

func (m *mockThesisRepo) ListByFaculty(_ context.Context, userID string) ([]model.Thesis, error) {
	return m.each(func(t *model.Thesis) bool {
		if t.AdvisorID == userID || (t.CoAdvisorID != nil && *t.CoAdvisorID == userID) {
			return true
		}
		return workflow.FindActiveMember(m.jury.membersOf(t.ThesisID), userID) != nil
	}), nil
}

func (m *mockThesisRepo) ListInProgressByStudent(_ context.Context, userID string) ([]model.Thesis, error) {
	return m.each(func(t *model.Thesis) bool { return t.IsAuthorOrCoAuthor(userID) && t.Status.IsInProgress() }), nil
}

func (m *mockThesisRepo) ExistsInProgressInCareer(_ context.Context, userIDs []string, careerID, excludeID string) (bool, error) {
	found := m.each(func(t *model.Thesis) bool {
		if t.CareerID != careerID || t.ThesisID == excludeID || !t.Status.IsInProgress() {
			return false
		}
		for _, uid := range userIDs {
			if t.IsAuthorOrCoAuthor(uid) {
				return true
			}
		}
		return false
	})
	return len(found) > 0, nil
}

func (m *mockThesisRepo) CreateHistory(_ context.Context, h *model.ThesisStatusHistory) error {
	if h.HistoryID == "" {
		h.HistoryID = uuid.NewString()
	}
	m.histories = append(m.histories, *h)
	return nil
}

func (m *mockThesisRepo) ListHistory(_ context.Context, thesisID string) ([]model.ThesisStatusHistory, error) {
	var result []model.ThesisStatusHistory
	for i := len(m.histories) - 1; i >= 0; i-- {
		if m.histories[i].ThesisID == thesisID {
			result = append(result, m.histories[i])
		}
	}
	return result, nil
}

// ── Mock JuryRepository ──

type mockJuryRepo struct {
	members []model.JuryMember
	reviews []model.Review
	users   *mockUserRepo
	listErr error
}

func newMockJuryRepo(users *mockUserRepo) *mockJuryRepo {
	return &mockJuryRepo{users: users}
}

func (m *mockJuryRepo) membersOf(thesisID string) []model.JuryMember {
	var result []model.JuryMember
	for _, jm := range m.members {
		if jm.ThesisID == thesisID && jm.IsActive {
			if u, ok := m.users.users[jm.UserID]; ok {
				jm.User = u
			}
			result = append(result, jm)
		}
	}
	return result
}

func (m *mockJuryRepo) ListActiveMembers(_ context.Context, thesisID string) ([]model.JuryMember, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.membersOf(thesisID), nil
}

func (m *mockJuryRepo) GetMember(_ context.Context, id string) (*model.JuryMember, error) {
	for i := range m.members {
		if m.members[i].JuryMemberID == id {
			jm := m.members[i]
			return &jm, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJuryRepo) ReplaceMembers(_ context.Context, thesisID string, members []model.JuryMember) error {
	kept := m.members[:0]
	for _, jm := range m.members {
		if jm.ThesisID != thesisID {
			kept = append(kept, jm)
		}
	}
	m.members = kept
	for i := range members {
		if members[i].JuryMemberID == "" {
			members[i].JuryMemberID = uuid.NewString()
		}
		m.members = append(m.members, members[i])
	}
	return nil
}

func (m *mockJuryRepo) CreateReview(_ context.Context, review *model.Review) error {
	for _, r := range m.reviews {
		if r.JuryMemberID == review.JuryMemberID && r.ReviewNumber == review.ReviewNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if review.ReviewID == "" {
		review.ReviewID = uuid.NewString()
	}
	m.reviews = append(m.reviews, *review)
	return nil
}

func (m *mockJuryRepo) GetReview(_ context.Context, id string) (*model.Review, error) {
	for i := range m.reviews {
		if m.reviews[i].ReviewID == id {
			r := m.reviews[i]
			r.JuryMember, _ = m.GetMember(context.Background(), r.JuryMemberID)
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJuryRepo) ListReviews(_ context.Context, thesisID string) ([]model.Review, error) {
	var result []model.Review
	for _, r := range m.reviews {
		if r.ThesisID == thesisID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockJuryRepo) ListReviewsByUser(_ context.Context, userID string) ([]model.Review, error) {
	var result []model.Review
	for _, r := range m.reviews {
		jm, err := m.GetMember(context.Background(), r.JuryMemberID)
		if err == nil && jm.UserID == userID {
			r.JuryMember = jm
			result = append(result, r)
		}
	}
	return result, nil
}

// ── Mock DeadlineRepository ──

type mockDeadlineRepo struct {
	deadlines []*model.Deadline
	now       func() time.Time
	theses    *mockThesisRepo
}

func newMockDeadlineRepo(now func() time.Time) *mockDeadlineRepo {
	return &mockDeadlineRepo{now: now}
}

// Create 模拟部分唯一索引：同一 (thesis_id, type) 只能有一条 ACTIVE
func (m *mockDeadlineRepo) Create(_ context.Context, d *model.Deadline) error {
	if d.Status == model.DeadlineActive {
		for _, existing := range m.deadlines {
			if existing.ThesisID == d.ThesisID && existing.Type == d.Type && existing.Status == model.DeadlineActive {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if d.DeadlineID == "" {
		d.DeadlineID = uuid.NewString()
	}
	d.CreatedAt = m.now()
	cp := *d
	m.deadlines = append(m.deadlines, &cp)
	return nil
}

func (m *mockDeadlineRepo) find(id string) *model.Deadline {
	for _, d := range m.deadlines {
		if d.DeadlineID == id {
			return d
		}
	}
	return nil
}

func (m *mockDeadlineRepo) GetByID(_ context.Context, id string) (*model.Deadline, error) {
	d := m.find(id)
	if d == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDeadlineRepo) GetActive(_ context.Context, thesisID string, typ model.DeadlineType) (*model.Deadline, error) {
	for _, d := range m.deadlines {
		if d.ThesisID == thesisID && d.Type == typ && d.Status == model.DeadlineActive {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeadlineRepo) CancelActive(_ context.Context, thesisID string, typ model.DeadlineType) (int64, error) {
	var n int64
	for _, d := range m.deadlines {
		if d.ThesisID == thesisID && d.Type == typ && d.Status == model.DeadlineActive {
			d.Status = model.DeadlineCancelled
			n++
		}
	}
	return n, nil
}

func (m *mockDeadlineRepo) TransitionStatus(_ context.Context, id string, from, to model.DeadlineStatus, completedAt *time.Time) (bool, error) {
	d := m.find(id)
	if d == nil || d.Status != from {
		return false, nil
	}
	d.Status = to
	if completedAt != nil {
		t := *completedAt
		d.CompletedAt = &t
	}
	return true, nil
}

func (m *mockDeadlineRepo) ExistsWithStatus(_ context.Context, thesisID string, typ model.DeadlineType, statuses ...model.DeadlineStatus) (bool, error) {
	for _, d := range m.deadlines {
		if d.ThesisID != thesisID || d.Type != typ {
			continue
		}
		for _, st := range statuses {
			if d.Status == st {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockDeadlineRepo) filter(fn func(d *model.Deadline) bool) []model.Deadline {
	var result []model.Deadline
	for _, d := range m.deadlines {
		if fn(d) {
			result = append(result, *d)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return result
}

func (m *mockDeadlineRepo) ListByThesis(_ context.Context, thesisID string) ([]model.Deadline, error) {
	return m.filter(func(d *model.Deadline) bool { return d.ThesisID == thesisID }), nil
}

func (m *mockDeadlineRepo) ListActiveByThesis(_ context.Context, thesisID string) ([]model.Deadline, error) {
	return m.filter(func(d *model.Deadline) bool {
		return d.ThesisID == thesisID && d.Status == model.DeadlineActive
	}), nil
}

// liveThesis 模拟按论文 is_active 过滤
func (m *mockDeadlineRepo) liveThesis(thesisID string) bool {
	if m.theses == nil {
		return true
	}
	t, ok := m.theses.theses[thesisID]
	return ok && t.IsActive
}

func (m *mockDeadlineRepo) ListActive(_ context.Context) ([]model.Deadline, error) {
	return m.filter(func(d *model.Deadline) bool {
		return d.Status == model.DeadlineActive && m.liveThesis(d.ThesisID)
	}), nil
}

func (m *mockDeadlineRepo) ListActiveDueBefore(_ context.Context, t time.Time) ([]model.Deadline, error) {
	return m.filter(func(d *model.Deadline) bool {
		return d.Status == model.DeadlineActive && d.DueDate.Before(t)
	}), nil
}

func (m *mockDeadlineRepo) ListActiveDueBetween(_ context.Context, from, to time.Time) ([]model.Deadline, error) {
	return m.filter(func(d *model.Deadline) bool {
		return d.Status == model.DeadlineActive && m.liveThesis(d.ThesisID) &&
			!d.DueDate.Before(from) && !d.DueDate.After(to)
	}), nil
}

// byStatus 测试断言辅助
func (m *mockDeadlineRepo) byStatus(thesisID string, typ model.DeadlineType, status model.DeadlineStatus) []*model.Deadline {
	var result []*model.Deadline
	for _, d := range m.deadlines {
		if d.ThesisID == thesisID && d.Type == typ && d.Status == status {
			result = append(result, d)
		}
	}
	return result
}

// ── Mock UserRepository / CareerRepository ──

type mockUserRepo struct {
	users  map[string]*model.User
	locked [][]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(id string, roles ...string) *model.User {
	u := &model.User{
		UserID:    id,
		FirstName: "用户",
		LastName:  id,
		Email:     id + "@example.edu",
		Roles:     model.StringArray(roles),
		IsActive:  true,
	}
	m.users[id] = u
	return u
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok && u.IsActive {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// LockForUpdate 记录加锁的用户（按 id 排序）
func (m *mockUserRepo) LockForUpdate(_ context.Context, ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	m.locked = append(m.locked, sorted)
	return nil
}

type mockCareerRepo struct {
	careers map[string]*model.Career
}

func newMockCareerRepo() *mockCareerRepo {
	return &mockCareerRepo{careers: make(map[string]*model.Career)}
}

func (m *mockCareerRepo) GetByID(_ context.Context, id string) (*model.Career, error) {
	if c, ok := m.careers[id]; ok && c.IsActive {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu    sync.Mutex
	items []*model.Notification
	err   error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			all = append(all, *n)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkAsRead(_ context.Context, id, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.NotificationID == id && item.UserID == userID {
			item.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkAllAsRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			n++
		}
	}
	return n, nil
}

// ── 通知与提醒去重替身 ──

// recordingNotifier 同步记录所有下发的通知
type recordingNotifier struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingNotifier) to(userID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Message
	for _, msg := range r.messages {
		if msg.UserID == userID {
			result = append(result, msg)
		}
	}
	return result
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}

type mockAlertGuard struct {
	marks map[string]bool
	err   error
}

func newMockAlertGuard() *mockAlertGuard {
	return &mockAlertGuard{marks: make(map[string]bool)}
}

func (g *mockAlertGuard) MarkAlerted(_ context.Context, deadlineID string, day time.Time, _ time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	key := deadlineID + ":" + day.Format("2006-01-02")
	if g.marks[key] {
		return false, nil
	}
	g.marks[key] = true
	return true, nil
}

var errMockStore = errors.New("mock store unavailable")

// ── Mock MilestoneRepository ──

type mockMilestoneRepo struct {
	milestones []*model.Milestone
	now        func() time.Time
	orderErr   error
}

func (m *mockMilestoneRepo) Create(_ context.Context, ms *model.Milestone) error {
	if ms.MilestoneID == "" {
		ms.MilestoneID = uuid.NewString()
	}
	ms.CreatedAt = m.now()
	cp := *ms
	m.milestones = append(m.milestones, &cp)
	return nil
}

func (m *mockMilestoneRepo) find(id string) *model.Milestone {
	for _, ms := range m.milestones {
		if ms.MilestoneID == id {
			return ms
		}
	}
	return nil
}

func (m *mockMilestoneRepo) GetByID(_ context.Context, id string) (*model.Milestone, error) {
	ms := m.find(id)
	if ms == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ms
	return &cp, nil
}

func (m *mockMilestoneRepo) ListByThesis(_ context.Context, thesisID string) ([]model.Milestone, error) {
	var result []model.Milestone
	for _, ms := range m.milestones {
		if ms.ThesisID == thesisID {
			result = append(result, *ms)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockMilestoneRepo) MaxOrder(_ context.Context, thesisID string) (int, error) {
	last := -1
	for _, ms := range m.milestones {
		if ms.ThesisID == thesisID && ms.SortOrder > last {
			last = ms.SortOrder
		}
	}
	return last, nil
}

func (m *mockMilestoneRepo) Update(_ context.Context, ms *model.Milestone) error {
	stored := m.find(ms.MilestoneID)
	if stored == nil {
		return gorm.ErrRecordNotFound
	}
	created := stored.CreatedAt
	*stored = *ms
	stored.CreatedAt = created
	return nil
}

func (m *mockMilestoneRepo) UpdateOrder(_ context.Context, id string, order int) error {
	if m.orderErr != nil {
		return m.orderErr
	}
	if ms := m.find(id); ms != nil {
		ms.SortOrder = order
	}
	return nil
}

func (m *mockMilestoneRepo) Delete(_ context.Context, id string) error {
	for i, ms := range m.milestones {
		if ms.MilestoneID == id {
			m.milestones = append(m.milestones[:i], m.milestones[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock ResolutionRepository ──

type mockResolutionRepo struct {
	resolutions []*model.Resolution
	locked      []string
	now         func() time.Time
	theses      *mockThesisRepo
	users       *mockUserRepo
}

func (m *mockResolutionRepo) Create(_ context.Context, r *model.Resolution) error {
	for _, existing := range m.resolutions {
		if existing.ResolutionNumber == r.ResolutionNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if r.ResolutionID == "" {
		r.ResolutionID = uuid.NewString()
	}
	r.CreatedAt = m.now()
	cp := *r
	cp.Thesis, cp.IssuedBy = nil, nil
	m.resolutions = append(m.resolutions, &cp)
	return nil
}

// withRelations 模拟 Preload
func (m *mockResolutionRepo) withRelations(r *model.Resolution) model.Resolution {
	cp := *r
	if t, ok := m.theses.theses[cp.ThesisID]; ok {
		thesis := *t
		cp.Thesis = &thesis
	}
	if u, ok := m.users.users[cp.IssuedByID]; ok {
		user := *u
		cp.IssuedBy = &user
	}
	return cp
}

func (m *mockResolutionRepo) find(fn func(r *model.Resolution) bool) (*model.Resolution, error) {
	for _, r := range m.resolutions {
		if fn(r) {
			cp := m.withRelations(r)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResolutionRepo) GetByID(_ context.Context, id string) (*model.Resolution, error) {
	return m.find(func(r *model.Resolution) bool { return r.ResolutionID == id })
}

func (m *mockResolutionRepo) GetByNumber(_ context.Context, number string) (*model.Resolution, error) {
	return m.find(func(r *model.Resolution) bool { return r.ResolutionNumber == number })
}

func (m *mockResolutionRepo) sorted(fn func(r *model.Resolution) bool) []model.Resolution {
	var result []model.Resolution
	for _, r := range m.resolutions {
		if fn(r) {
			result = append(result, m.withRelations(r))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].IssuedAt.After(result[j].IssuedAt) })
	return result
}

func (m *mockResolutionRepo) List(_ context.Context, f repository.ResolutionFilter, offset, limit int) ([]model.Resolution, int64, error) {
	all := m.sorted(func(r *model.Resolution) bool {
		return (f.ThesisID == "" || r.ThesisID == f.ThesisID) && (f.Type == "" || r.Type == f.Type)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Resolution{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockResolutionRepo) ListByThesis(_ context.Context, thesisID string) ([]model.Resolution, error) {
	return m.sorted(func(r *model.Resolution) bool { return r.ThesisID == thesisID }), nil
}

func (m *mockResolutionRepo) Update(_ context.Context, r *model.Resolution) error {
	for _, stored := range m.resolutions {
		if stored.ResolutionID == r.ResolutionID {
			stored.Description = r.Description
			stored.DocumentURL = r.DocumentURL
			stored.UpdatedBy = r.UpdatedBy
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockResolutionRepo) Delete(_ context.Context, id string) error {
	for i, r := range m.resolutions {
		if r.ResolutionID == id {
			m.resolutions = append(m.resolutions[:i], m.resolutions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockResolutionRepo) LockNumbering(_ context.Context, prefix string) error {
	m.locked = append(m.locked, prefix)
	return nil
}

func (m *mockResolutionRepo) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	last := ""
	for _, r := range m.resolutions {
		n := r.ResolutionNumber
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(last) || (len(n) == len(last) && n > last) {
			last = n
		}
	}
	return last, nil
}

// ── Mock StatisticsRepository（基于论文与期限 mock 现算） ──

type mockStatisticsRepo struct {
	theses    *mockThesisRepo
	deadlines *mockDeadlineRepo
	careers   *mockCareerRepo
	err       error
}

func (m *mockStatisticsRepo) active() []model.Thesis {
	return m.theses.each(func(t *model.Thesis) bool { return true })
}

func (m *mockStatisticsRepo) CountTheses(_ context.Context, since *time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, t := range m.active() {
		if since == nil || !t.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (m *mockStatisticsRepo) CountThesesByStatus(_ context.Context) ([]repository.StatusCount, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[model.ThesisStatus]int64{}
	for _, t := range m.active() {
		counts[t.Status]++
	}
	var rows []repository.StatusCount
	for st, n := range counts {
		rows = append(rows, repository.StatusCount{Status: st, Count: n})
	}
	return rows, nil
}

func (m *mockStatisticsRepo) CountThesesByMonth(_ context.Context, since time.Time, timezone string) ([]repository.MonthCount, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	for _, t := range m.active() {
		if !t.CreatedAt.Before(since) {
			counts[t.CreatedAt.In(loc).Format("2006-01")]++
		}
	}
	var rows []repository.MonthCount
	for month, n := range counts {
		rows = append(rows, repository.MonthCount{Month: month, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows, nil
}

func (m *mockStatisticsRepo) CountThesesByCareer(_ context.Context) ([]repository.CareerCount, error) {
	counts := map[string]int64{}
	for _, t := range m.active() {
		counts[t.CareerID]++
	}
	var rows []repository.CareerCount
	for id, n := range counts {
		name := ""
		if c, ok := m.careers.careers[id]; ok {
			name = c.Name
		}
		rows = append(rows, repository.CareerCount{CareerID: id, CareerName: name, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].CareerName < rows[j].CareerName
	})
	return rows, nil
}

func (m *mockStatisticsRepo) countDeadlines(fn func(d *model.Deadline) bool) int64 {
	return int64(len(m.deadlines.filter(func(d *model.Deadline) bool {
		return d.Status == model.DeadlineActive && m.deadlines.liveThesis(d.ThesisID) && fn(d)
	})))
}

func (m *mockStatisticsRepo) CountActiveDeadlines(_ context.Context) (int64, error) {
	return m.countDeadlines(func(*model.Deadline) bool { return true }), nil
}

func (m *mockStatisticsRepo) CountActiveDeadlinesDueBetween(_ context.Context, from, to time.Time) (int64, error) {
	return m.countDeadlines(func(d *model.Deadline) bool {
		return !d.DueDate.Before(from) && !d.DueDate.After(to)
	}), nil
}

func (m *mockStatisticsRepo) CountActiveDeadlinesDueBefore(_ context.Context, t time.Time) (int64, error) {
	return m.countDeadlines(func(d *model.Deadline) bool { return d.DueDate.Before(t) }), nil
}

// ── 测试环境 ──

// testNow 2026-03-02 为周一
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

const (
	testCareer      = "career-1"
	testFaculty     = "faculty-1"
	userAuthor      = "u-author"
	userCoAuthor    = "u-coauthor"
	userOtherStu    = "u-student-2"
	userAdvisor     = "u-advisor"
	userPresident   = "u-pres"
	userSecretary   = "u-sec"
	userMember      = "u-mem"
	userCoordinator = "u-coord"
	userAdmin       = "u-admin"
)

type testEnv struct {
	cfg           *config.Config
	clock         *clock.Fixed
	repo          *repository.Repository
	theses        *mockThesisRepo
	jury          *mockJuryRepo
	deadlines     *mockDeadlineRepo
	users         *mockUserRepo
	careers       *mockCareerRepo
	notifications *mockNotificationRepo
	notifier      *recordingNotifier
	guard         *mockAlertGuard
	milestones    *mockMilestoneRepo
	resolutions   *mockResolutionRepo
	stats         *mockStatisticsRepo

	deadlineSvc DeadlineService
	thesisSvc   ThesisService
	reviewSvc   ReviewService
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		Deadline: config.DeadlineConfig{
			EvaluationBusinessDays:     15,
			ObservationCalendarDays:    30,
			AlertThresholdBusinessDays: 3,
			AlertDedupTTL:              36 * time.Hour,
		},
	}
	clk := &clock.Fixed{T: testNow}

	users := newMockUserRepo()
	users.add(userAuthor, model.RoleStudent)
	users.add(userCoAuthor, model.RoleStudent)
	users.add(userOtherStu, model.RoleStudent)
	users.add(userAdvisor, model.RoleFaculty)
	users.add(userPresident, model.RoleFaculty)
	users.add(userSecretary, model.RoleFaculty)
	users.add(userMember, model.RoleFaculty)
	coord := users.add(userCoordinator, model.RoleFaculty, model.RoleCoordinator)
	faculty := testFaculty
	coord.FacultyID = &faculty
	users.add(userAdmin, model.RoleAdmin)

	careers := newMockCareerRepo()
	careers.careers[testCareer] = &model.Career{CareerID: testCareer, Name: "计算机科学", FacultyID: testFaculty, IsActive: true}

	jury := newMockJuryRepo(users)
	theses := newMockThesisRepo(careers, jury)
	deadlines := newMockDeadlineRepo(clk.Now)
	deadlines.theses = theses
	notifications := newMockNotificationRepo()
	milestones := &mockMilestoneRepo{now: clk.Now}
	resolutions := &mockResolutionRepo{now: clk.Now, theses: theses, users: users}
	stats := &mockStatisticsRepo{theses: theses, deadlines: deadlines, careers: careers}

	env := &testEnv{
		cfg:           cfg,
		clock:         clk,
		theses:        theses,
		jury:          jury,
		deadlines:     deadlines,
		users:         users,
		careers:       careers,
		notifications: notifications,
		notifier:      &recordingNotifier{},
		guard:         newMockAlertGuard(),
		milestones:    milestones,
		resolutions:   resolutions,
		stats:         stats,
		repo: &repository.Repository{
			Thesis:       theses,
			Jury:         jury,
			Deadline:     deadlines,
			User:         users,
			Career:       careers,
			Notification: notifications,
			Milestone:    milestones,
			Resolution:   resolutions,
			Statistics:   stats,
		},
	}

	logger := zap.NewNop()
	env.deadlineSvc = NewDeadlineService(cfg.Deadline, env.repo, env.notifier, env.guard, clk, time.UTC, logger)
	env.thesisSvc = NewThesisService(cfg.Deadline, env.repo, env.deadlineSvc, env.notifier, clk, logger)
	env.reviewSvc = NewReviewService(cfg.Review, env.repo, env.deadlineSvc, env.notifier, clk, logger)
	return env
}

func actorOf(id string, roles ...string) workflow.Actor {
	return workflow.Actor{ID: id, Roles: roles}
}

var (
	authorActor = actorOf(userAuthor, model.RoleStudent)
	adminActor  = actorOf(userAdmin, model.RoleAdmin)
)

// seedThesis 直接写入指定状态的论文
func (e *testEnv) seedThesis(status model.ThesisStatus) *model.Thesis {
	t := &model.Thesis{
		Title:          "基于图神经网络的交通流预测研究",
		AcademicDegree: "学士",
		CareerID:       testCareer,
		AuthorID:       userAuthor,
		AdvisorID:      userAdvisor,
		Status:         status,
		IsActive:       true,
		Version:        1,
	}
	_ = e.theses.Create(context.Background(), t)
	return t
}

// seedJury 为论文写入标准三人委员会，返回 [主席, 秘书, 委员]
func (e *testEnv) seedJury(thesisID string) []model.JuryMember {
	members := []model.JuryMember{
		{ThesisID: thesisID, UserID: userPresident, Role: model.JuryRolePresident, IsActive: true},
		{ThesisID: thesisID, UserID: userSecretary, Role: model.JuryRoleSecretary, IsActive: true},
		{ThesisID: thesisID, UserID: userMember, Role: model.JuryRoleMember, IsActive: true},
	}
	_ = e.jury.ReplaceMembers(context.Background(), thesisID, members)
	return members
}

// seedDeadline 直接写入一条期限
func (e *testEnv) seedDeadline(thesisID string, typ model.DeadlineType, due time.Time) *model.Deadline {
	d := &model.Deadline{ThesisID: thesisID, Type: typ, DueDate: due, Status: model.DeadlineActive}
	_ = e.deadlines.Create(context.Background(), d)
	return e.deadlines.find(d.DeadlineID)
}

func (e *testEnv) stored(thesisID string) *model.Thesis {
	return e.theses.theses[thesisID]
}

func (e *testEnv) historyOf(thesisID string) []model.ThesisStatusHistory {
	h, _ := e.theses.ListHistory(context.Background(), thesisID)
	return h
}
