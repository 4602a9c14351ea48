package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
	"github.com/otidevv/backend-seguimiento-tesis/internal/model"
	"github.com/otidevv/backend-seguimiento-tesis/internal/repository"
	pkgerrors "github.com/otidevv/backend-seguimiento-tesis/pkg/errors"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = pkgerrors.New(pkgerrors.KindNotFound, "通知不存在")
	ErrNotifyQueueFull      = errors.New("通知队列已满")
	ErrNotifierClosed       = errors.New("通知分发器已关闭")
)

// 通知关联对象类型
const (
	RelatedThesis     = "thesis"
	RelatedDeadline   = "deadline"
	RelatedReview     = "review"
	RelatedResolution = "resolution"
)

// Message 一条待下发的通知
type Message struct {
	UserID      string
	Title       string
	Body        string
	RelatedType string
	RelatedID   string
}

// Notifier 通知下发协作方
// 论文流程只调用 Notify，不关心下发结果（失败记录日志后忽略）
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotificationService 站内通知业务接口
type NotificationService interface {
	Notifier
	ListMine(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkAsRead(ctx context.Context, id, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

// Notify 写入一条站内通知
func (s *notificationService) Notify(ctx context.Context, msg Message) error {
	n := &model.Notification{
		UserID:  msg.UserID,
		Title:   msg.Title,
		Message: msg.Body,
	}
	if msg.RelatedType != "" && msg.RelatedID != "" {
		relType, relID := msg.RelatedType, msg.RelatedID
		n.RelatedType = &relType
		n.RelatedID = &relID
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("写入通知失败", zap.String("user_id", msg.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) ListMine(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.Offset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		n := &list[i]
		result = append(result, dto.NotificationResponse{
			ID:          n.NotificationID,
			Title:       n.Title,
			Message:     n.Message,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, total, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID string) error {
	affected, err := s.repo.Notification.MarkAsRead(ctx, id, userID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	affected, err := s.repo.Notification.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("批量标记通知已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return affected, nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ── 异步分发 ──

// AsyncNotifier 将 Notify 转为入队即返回，由后台 goroutine 依次写入下游 Notifier
type AsyncNotifier struct {
	next    Notifier
	queue   chan Message
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncNotifier 创建并启动异步分发器
func NewAsyncNotifier(next Notifier, buffer int, logger *zap.Logger) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AsyncNotifier{
		next:    next,
		queue:   make(chan Message, buffer),
		timeout: 5 * time.Second,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Notify 入队；队列已满或已关闭时返回错误，不阻塞调用方
func (a *AsyncNotifier) Notify(_ context.Context, msg Message) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrNotifierClosed
	}
	select {
	case a.queue <- msg:
		return nil
	default:
		return ErrNotifyQueueFull
	}
}

func (a *AsyncNotifier) run() {
	defer close(a.done)
	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Notify(ctx, msg); err != nil {
			a.logger.Warn("通知下发失败",
				zap.String("user_id", msg.UserID),
				zap.String("title", msg.Title),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Close 停止接收新通知，并等待队列中剩余通知下发完毕
func (a *AsyncNotifier) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	<-a.done
}

// ── 尽力而为的下发辅助 ──

// notifyUsers 向多个用户发送同一通知；失败只记录日志
func notifyUsers(ctx context.Context, n Notifier, logger *zap.Logger, userIDs []string, title, body, relType, relID string) {
	if n == nil {
		return
	}
	for _, uid := range userIDs {
		if uid == "" {
			continue
		}
		err := n.Notify(ctx, Message{
			UserID:      uid,
			Title:       title,
			Body:        body,
			RelatedType: relType,
			RelatedID:   relID,
		})
		if err != nil {
			logger.Warn("发送通知失败",
				zap.String("user_id", uid),
				zap.String("title", title),
				zap.Error(err),
			)
		}
	}
}

// shortTitle 通知正文中引用论文标题时截断
func shortTitle(title string, limit int) string {
	r := []rune(title)
	if len(r) <= limit {
		return title
	}
	return string(r[:limit]) + "..."
}
