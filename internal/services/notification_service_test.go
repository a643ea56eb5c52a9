package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestNotificationService_Inbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.notifications
	tick := testNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	first, err := svc.Notify(ctx, env.user.ID, core.NotificationGoalCreated, "New goal", "first")
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if _, err := svc.Notify(ctx, env.user.ID, core.NotificationAutoTransaction, "Auto transaction", "second"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	list, err := svc.List(ctx, env.user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Message != "second" {
		t.Fatalf("List() = %+v, want newest first", list)
	}
	if list[0].Read {
		t.Error("new notifications should be unread")
	}

	if n, _ := svc.UnreadCount(ctx, env.user.ID); n != 2 {
		t.Errorf("UnreadCount() = %d, want 2", n)
	}
	if n, err := svc.MarkAllRead(ctx, env.user.ID); err != nil || n != 2 {
		t.Errorf("MarkAllRead() = %d, %v, want 2", n, err)
	}
	if n, _ := svc.UnreadCount(ctx, env.user.ID); n != 0 {
		t.Errorf("UnreadCount() after MarkAllRead = %d, want 0", n)
	}

	if err := svc.Delete(ctx, env.user.ID, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, env.user.ID, first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	if n, err := svc.Clear(ctx, env.user.ID); err != nil || n != 1 {
		t.Errorf("Clear() = %d, %v, want 1", n, err)
	}
	if list, _ := svc.List(ctx, env.user.ID); len(list) != 0 {
		t.Errorf("List() after Clear = %d items", len(list))
	}
}

func TestNotificationService_Isolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.newUser(t, "bob")

	n, err := env.notifications.Notify(ctx, bob.ID, core.NotificationGoalCreated, "New goal", "bob's")
	if err != nil {
		t.Fatal(err)
	}

	if err := env.notifications.Delete(ctx, env.user.ID, n.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() of another user's notification error = %v, want ErrNotFound", err)
	}
	if list, _ := env.notifications.List(ctx, env.user.ID); len(list) != 0 {
		t.Errorf("alice sees %d notifications, want 0", len(list))
	}
}

func TestNotificationService_NilIsQuiet(t *testing.T) {
	var svc *NotificationService
	svc.notifyQuietly(context.Background(), 1, core.NotificationGoalCreated, "t", "m")
}
