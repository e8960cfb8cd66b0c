package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"gymroster/internal/adapters/email"
	memberStore "gymroster/internal/adapters/storage/member"
	"gymroster/internal/domain/member"
)

// DefaultDigestLimit caps how many overdue members one digest lists.
const DefaultDigestLimit = 50

// digestRenderer escapes raw HTML in member names (WithUnsafe is not set).
var digestRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// DigestStore is the read side the digest needs.
type DigestStore interface {
	ListExpired(ctx context.Context, today time.Time, limit int) ([]member.Member, error)
	Summary(ctx context.Context, today time.Time) (memberStore.Summary, error)
}

// ExpiryDigestInput carries input for the digest orchestrator.
type ExpiryDigestInput struct {
	Today      time.Time
	Recipients []string
	GymName    string
	Limit      int
}

// ExpiryDigestDeps holds dependencies for ExpiryDigest.
type ExpiryDigestDeps struct {
	MemberStore DigestStore
	Sender      email.Sender
}

// ExpiryDigestResult reports what was sent.
type ExpiryDigestResult struct {
	Sent      bool
	Overdue   int
	MessageID string
}

// ExecuteExpiryDigest emails staff a table of members whose plan has lapsed.
// PRE: Sender set when Recipients is non-empty
// POST: Nothing is sent when there are no recipients or no overdue members
func ExecuteExpiryDigest(ctx context.Context, input ExpiryDigestInput, deps ExpiryDigestDeps) (ExpiryDigestResult, error) {
	if len(input.Recipients) == 0 {
		return ExpiryDigestResult{}, nil
	}
	if deps.Sender == nil {
		return ExpiryDigestResult{}, errors.New("email sender is required")
	}
	today := input.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = member.Day(today)
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultDigestLimit
	}

	overdue, err := deps.MemberStore.ListExpired(ctx, today, limit)
	if err != nil {
		return ExpiryDigestResult{}, fmt.Errorf("list expired: %w", err)
	}
	if len(overdue) == 0 {
		return ExpiryDigestResult{}, nil
	}
	sum, err := deps.MemberStore.Summary(ctx, today)
	if err != nil {
		return ExpiryDigestResult{}, fmt.Errorf("summary: %w", err)
	}

	md := RenderDigestMarkdown(input.GymName, today, sum, overdue)
	var html bytes.Buffer
	if err := digestRenderer.Convert([]byte(md), &html); err != nil {
		return ExpiryDigestResult{}, fmt.Errorf("render digest: %w", err)
	}

	res, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      input.Recipients,
		Subject: fmt.Sprintf("%d expired memberships as of %s", sum.Expired, today.Format(member.DateLayout)),
		HTML:    html.String(),
		Text:    md,
	})
	if err != nil {
		return ExpiryDigestResult{}, fmt.Errorf("send digest: %w", err)
	}

	slog.Info("member_event", "event", "expiry_digest_sent", "overdue", len(overdue), "recipients", len(input.Recipients))
	return ExpiryDigestResult{Sent: true, Overdue: len(overdue), MessageID: res.MessageID}, nil
}

// RenderDigestMarkdown lays out the digest as a markdown table.
func RenderDigestMarkdown(gymName string, today time.Time, sum memberStore.Summary, overdue []member.Member) string {
	var b strings.Builder
	title := "Expired memberships"
	if gymName != "" {
		title = gymName + ": " + title
	}
	fmt.Fprintf(&b, "# %s\n\n", escapeCell(title))
	fmt.Fprintf(&b, "As of %s: %d members, %d active, %d expired.\n\n",
		today.Format(member.DateLayout), sum.Total, sum.Active, sum.Expired)
	b.WriteString("| Name | Phone | Expired on | Days late |\n")
	b.WriteString("|---|---|---|---:|\n")
	for _, m := range overdue {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
			escapeCell(m.Name), escapeCell(m.Phone), m.ExpiryDate.Format(member.DateLayout), m.LateDays(today))
	}
	if sum.Expired > len(overdue) {
		fmt.Fprintf(&b, "\n%d more not shown.\n", sum.Expired-len(overdue))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// StartBackgroundWorker runs job every interval until stopCh is closed.
// PRE: interval > 0; stopCh is provided to signal shutdown
// POST: The returned channel is closed once the worker has exited
func StartBackgroundWorker(name string, job func(ctx context.Context) error, interval time.Duration, stopCh <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := job(ctx); err != nil {
					slog.Error("background_job_failed", "job", name, "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("background_worker_stopped", "job", name)
				return
			}
		}
	}()
	return done
}
