package notifications

import (
	"context"
	"testing"
)

type fakeStore struct {
	StoreAPI
	created      []string
	emailEnabled bool
	emailFrom    string
	userEmail    string
}

func (f *fakeStore) CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	f.created = append(f.created, ntype)
	return nil
}

func (f *fakeStore) EmailSettings(ctx context.Context, tenantID string) (bool, string, error) {
	return f.emailEnabled, f.emailFrom, nil
}

func (f *fakeStore) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	return f.userEmail, nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) Send(ctx context.Context, from, to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

func TestCreateStoresWithoutEmailWhenDisabled(t *testing.T) {
	store := &fakeStore{userEmail: "a@example.com"}
	mailer := &fakeMailer{}
	svc := New(store, mailer)

	if err := svc.Create(context.Background(), "t1", "u1", TypeReviewCompleted, "Review completed", "body"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatal("notification not stored")
	}
	if len(mailer.sent) != 0 {
		t.Fatal("email must not be sent when tenant has it disabled")
	}
}

func TestCreateMirrorsToEmailWhenEnabled(t *testing.T) {
	store := &fakeStore{userEmail: "a@example.com", emailEnabled: true, emailFrom: "hr@corp.test"}
	mailer := &fakeMailer{}
	svc := New(store, mailer)

	if err := svc.Create(context.Background(), "t1", "u1", TypeEvaluationAssigned, "Evaluation assigned", "body"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "a@example.com" {
		t.Fatalf("expected one email to the user, got %v", mailer.sent)
	}
}
