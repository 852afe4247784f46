package utils

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"salesbackend/models"
	"salesbackend/store"
)

const jobTimeout = 2 * time.Minute

// PruneExpiredSessions deletes sessions whose refresh token has expired.
func PruneExpiredSessions(ctx context.Context, sessions store.SessionRepository, now time.Time) (int64, error) {
	n, err := sessions.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	if n > 0 {
		log.Printf("Pruned %d expired sessions", n)
	}
	return n, nil
}

// SendLowStockDigest mails every owner the products at or below threshold.
// It returns the number of digests sent.
func SendLowStockDigest(ctx context.Context, s *store.Store, mailer Mailer, threshold int) (int, error) {
	products, err := s.Products.ListLowStock(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("list low stock: %w", err)
	}

	byOwner := map[string][]models.Product{}
	var owners []string
	for _, p := range products {
		if _, ok := byOwner[p.UserID]; !ok {
			owners = append(owners, p.UserID)
		}
		byOwner[p.UserID] = append(byOwner[p.UserID], p)
	}
	sort.Strings(owners)

	sent := 0
	for _, owner := range owners {
		user, err := s.Users.GetUserByID(ctx, owner)
		if err != nil {
			log.Printf("Low stock digest: skipping owner %s: %v", owner, err)
			continue
		}
		body := lowStockBody(user.Username, byOwner[owner], threshold)
		if err := mailer.Send(user.Email, "Low stock report", body); err != nil {
			log.Printf("Low stock digest: send to %s failed: %v", user.Email, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func lowStockBody(username string, products []models.Product, threshold int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nThe following products have %d or fewer units left:\n\n", username, threshold)
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%s): %d\n", p.ItemName, p.Category, p.Quantity)
	}
	return b.String()
}

// StartScheduler registers the maintenance jobs and starts them in the
// background. The caller stops the returned scheduler on shutdown.
func StartScheduler(location *time.Location, s *store.Store, mailer Mailer, threshold int) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(location)

	if _, err := scheduler.Every(1).Hour().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := PruneExpiredSessions(ctx, s.Sessions, time.Now().UTC()); err != nil {
			log.Printf("Scheduled job failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := scheduler.Every(1).Day().At("08:00").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		n, err := SendLowStockDigest(ctx, s, mailer, threshold)
		if err != nil {
			log.Printf("Scheduled job failed: %v", err)
			return
		}
		log.Printf("Low stock digest sent to %d owners", n)
	}); err != nil {
		return nil, err
	}

	scheduler.StartAsync()
	return scheduler, nil
}
