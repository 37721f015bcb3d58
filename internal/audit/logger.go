package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"podnotes/backend/internal/audit/domain"
	auditrepo "podnotes/backend/internal/audit/repository"
)

// recordTimeout is the max time allowed for a single async activity write.
const recordTimeout = 5 * time.Second

// ActivityLogger records one pod activity entry with explicit action/subject.
// Record is best-effort: failures are logged and do not affect the caller.
type ActivityLogger interface {
	Record(ctx context.Context, podID, userID, action, subject, metadata string)
}

// Logger implements ActivityLogger using the activity repository.
type Logger struct {
	repo auditrepo.Repository
	log  *logrus.Logger
}

// NewLogger returns an ActivityLogger that persists to repo.
func NewLogger(repo auditrepo.Repository, log *logrus.Logger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{repo: repo, log: log}
}

// Record writes one activity entry in a goroutine so the caller is not
// blocked. The goroutine uses context.Background() with recordTimeout so
// request cancellation does not abort the in-flight write. Errors are logged
// and never returned.
func (l *Logger) Record(ctx context.Context, podID, userID, action, subject, metadata string) {
	if l.repo == nil {
		return
	}
	entry := &domain.Activity{
		ID:        uuid.New().String(),
		PodID:     podID,
		UserID:    userID,
		Action:    action,
		Subject:   subject,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.repo.Create(writeCtx, entry); err != nil {
			l.log.WithError(err).WithFields(logrus.Fields{
				"action": action, "subject": subject,
			}).Warn("activity: failed to record entry")
		}
	}()
}
