package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/otidevv/backend-seguimiento-tesis/internal/dto"
)

func TestNotificationService_NotifyAndList(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := NewNotificationService(env.repo, zap.NewNop())

	for _, title := range []string{"论文状态更新", "期限即将到期", "评审结果"} {
		if err := svc.Notify(ctx, Message{UserID: userAuthor, Title: title, Body: "内容", RelatedType: RelatedThesis, RelatedID: "t-1"}); err != nil {
			t.Fatalf("Notify 失败: %v", err)
		}
	}
	_ = svc.Notify(ctx, Message{UserID: userAdvisor, Title: "其他人的通知"})

	list, total, err := svc.ListMine(ctx, userAuthor, &dto.NotificationListRequest{PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2}})
	if err != nil {
		t.Fatalf("ListMine 失败: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Errorf("期望 total=3 且本页 2 条，实际 total=%d len=%d", total, len(list))
	}
	if list[0].RelatedType == nil || *list[0].RelatedType != RelatedThesis {
		t.Error("期望写入关联对象类型")
	}

	if err := svc.MarkAsRead(ctx, list[0].ID, userAuthor); err != nil {
		t.Fatalf("MarkAsRead 失败: %v", err)
	}
	unread, _ := svc.CountUnread(ctx, userAuthor)
	if unread != 2 {
		t.Errorf("期望 2 条未读，实际 %d", unread)
	}
	_, total, _ = svc.ListMine(ctx, userAuthor, &dto.NotificationListRequest{UnreadOnly: true})
	if total != 2 {
		t.Errorf("仅未读期望 2 条，实际 %d", total)
	}

	n, err := svc.MarkAllAsRead(ctx, userAuthor)
	if err != nil || n != 2 {
		t.Errorf("期望批量标记 2 条，实际 %d, %v", n, err)
	}
}

func TestNotificationService_MarkAsRead_OtherUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := NewNotificationService(env.repo, zap.NewNop())
	_ = svc.Notify(ctx, Message{UserID: userAuthor, Title: "通知"})
	id := env.notifications.items[0].NotificationID

	if err := svc.MarkAsRead(ctx, id, userOtherStu); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("不能标记他人的通知，期望 ErrNotificationNotFound，实际 %v", err)
	}
	if err := svc.MarkAsRead(ctx, "missing", userAuthor); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("期望 ErrNotificationNotFound，实际 %v", err)
	}
}

func TestNotificationService_NotifyStoreError(t *testing.T) {
	env := newTestEnv()
	env.notifications.err = errMockStore
	svc := NewNotificationService(env.repo, zap.NewNop())

	if err := svc.Notify(context.Background(), Message{UserID: userAuthor, Title: "通知"}); !errors.Is(err, errMockStore) {
		t.Errorf("期望返回存储错误，实际 %v", err)
	}
}

// ── AsyncNotifier ──

type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Message
}

func (b *blockingNotifier) Notify(_ context.Context, msg Message) error {
	<-b.release
	b.mu.Lock()
	b.got = append(b.got, msg)
	b.mu.Unlock()
	return nil
}

func TestAsyncNotifier_DeliversBeforeClose(t *testing.T) {
	next := &recordingNotifier{}
	a := NewAsyncNotifier(next, 16, zap.NewNop())

	for i := 0; i < 10; i++ {
		if err := a.Notify(context.Background(), Message{UserID: userAuthor, Title: "通知"}); err != nil {
			t.Fatalf("入队失败: %v", err)
		}
	}
	a.Close()

	if got := len(next.to(userAuthor)); got != 10 {
		t.Errorf("Close 后期望全部 10 条已下发，实际 %d", got)
	}
	if err := a.Notify(context.Background(), Message{UserID: userAuthor}); !errors.Is(err, ErrNotifierClosed) {
		t.Errorf("关闭后期望 ErrNotifierClosed，实际 %v", err)
	}
	a.Close()
}

func TestAsyncNotifier_QueueFull(t *testing.T) {
	next := &blockingNotifier{release: make(chan struct{})}
	a := NewAsyncNotifier(next, 1, zap.NewNop())

	// 第一条被后台取走后阻塞在下游，第二条占满队列，之后的入队必然失败
	var full bool
	for i := 0; i < 5; i++ {
		if err := a.Notify(context.Background(), Message{UserID: userAuthor}); errors.Is(err, ErrNotifyQueueFull) {
			full = true
			break
		}
	}
	if !full {
		t.Error("期望队列已满时返回 ErrNotifyQueueFull")
	}

	close(next.release)
	a.Close()
}

func TestAsyncNotifier_DownstreamErrorSwallowed(t *testing.T) {
	next := &recordingNotifier{err: errMockStore}
	a := NewAsyncNotifier(next, 4, zap.NewNop())

	if err := a.Notify(context.Background(), Message{UserID: userAuthor}); err != nil {
		t.Errorf("下游失败不应影响入队，实际 %v", err)
	}
	a.Close()
}

func TestNotifyUsers_SkipsEmptyAndNil(t *testing.T) {
	rec := &recordingNotifier{}
	notifyUsers(context.Background(), rec, zap.NewNop(), []string{userAuthor, "", userCoAuthor}, "标题", "正文", RelatedThesis, "t-1")
	if len(rec.messages) != 2 {
		t.Errorf("期望跳过空用户后发送 2 条，实际 %d", len(rec.messages))
	}

	notifyUsers(context.Background(), nil, zap.NewNop(), []string{userAuthor}, "标题", "正文", "", "")
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		title string
		limit int
		want  string
	}{
		{"短标题", 10, "短标题"},
		{"一二三四五六", 3, "一二三..."},
	}
	for _, tt := range tests {
		if got := shortTitle(tt.title, tt.limit); got != tt.want {
			t.Errorf("shortTitle(%q, %d)=%q，期望 %q", tt.title, tt.limit, got, tt.want)
		}
	}
}
