package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"salesbackend/models"
	"salesbackend/store"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func TestSendLowStockDigest(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_ = s.Users.CreateUser(ctx, &models.User{ID: "u1", Username: "ana", Email: "ana@example.com"})
	_ = s.Users.CreateUser(ctx, &models.User{ID: "u2", Username: "bo", Email: "bo@example.com"})
	for _, p := range []models.Product{
		{ID: "p1", ItemName: "Tea", Category: "drinks", Quantity: 2, UserID: "u1"},
		{ID: "p2", ItemName: "Rice", Category: "food", Quantity: 50, UserID: "u1"},
		{ID: "p3", ItemName: "Salt", Category: "food", Quantity: 0, UserID: "u1"},
		{ID: "p4", ItemName: "Soap", Category: "home", Quantity: 100, UserID: "u2"},
	} {
		p := p
		_ = s.Products.CreateProduct(ctx, &p)
	}

	mailer := &recordingMailer{}
	n, err := SendLowStockDigest(ctx, s, mailer, 5)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || len(mailer.sent) != 1 {
		t.Fatalf("sent %d digests (%d mails), want 1", n, len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "ana@example.com" {
		t.Errorf("to = %q", mail.to)
	}
	if !strings.Contains(mail.body, "Tea") || !strings.Contains(mail.body, "Salt") || strings.Contains(mail.body, "Rice") {
		t.Errorf("unexpected body:\n%s", mail.body)
	}
}

func TestPruneExpiredSessions(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Now().UTC()
	_ = s.Sessions.CreateSession(ctx, &models.Session{ID: "a", ExpiresAt: now.Add(-time.Minute)})
	_ = s.Sessions.CreateSession(ctx, &models.Session{ID: "b", ExpiresAt: now.Add(time.Minute)})

	n, err := PruneExpiredSessions(ctx, s.Sessions, now)
	if err != nil || n != 1 {
		t.Fatalf("PruneExpiredSessions = %d, %v", n, err)
	}
}
