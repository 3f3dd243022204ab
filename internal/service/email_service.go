package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mailtriage/internal/extract"
	"mailtriage/internal/logger"
	"mailtriage/internal/mailto"
	"mailtriage/internal/model"
	"mailtriage/internal/repository"
)

// EmailUpdate patches one row. Nil fields are left unchanged.
type EmailUpdate struct {
	Status     *model.Status   `json:"status,omitempty"`
	Priority   *model.Priority `json:"priority,omitempty"`
	Remarks    *string         `json:"remarks,omitempty"`
	DraftReply *string         `json:"draft_reply,omitempty"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
	Count    int    `json:"count"`
}

type Stats struct {
	Total                  int                  `json:"total"`
	ByStatus               map[model.Status]int `json:"by_status"`
	ByCategory             []CategoryCount      `json:"by_category"`
	PendingActions         int                  `json:"pending_actions"`
	RepliesReady           int                  `json:"replies_ready"`
	RepliesAvailable       int                  `json:"replies_available"`
	HighPriorityActionable int                  `json:"high_priority_actionable"`
	BackupAvailable        bool                 `json:"backup_available"`
	EngineReady            bool                 `json:"engine_ready"`
}

// ActionItem is a row prepared for the action queue.
type ActionItem struct {
	*model.ProcessedEmail
	Emoji        string `json:"emoji"`
	ReplySubject string `json:"reply_subject"`
	ReplyLink    string `json:"reply_link"`
	Actionable   bool   `json:"actionable"`
}

// Overview is what the dashboard renders for one request.
type Overview struct {
	Stats      *Stats
	Emails     []*model.ProcessedEmail
	Actions    []*ActionItem
	Categories []string
}

type backupChecker interface {
	HasBackup() bool
}

type emailService struct {
	repo     repository.EmailTableRepository
	engine   EmailEngine
	notifier ChangeNotifier
	logger   *logger.Logger
	now      func() time.Time

	// serializes load-modify-save cycles within this process
	mu sync.Mutex
}

func NewEmailService(
	repo repository.EmailTableRepository,
	engine EmailEngine,
	notifier ChangeNotifier,
	logger *logger.Logger,
) EmailService {
	return &emailService{
		repo:     repo,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *emailService) EngineReady() bool {
	return s.engine != nil && s.engine.IsInitialized()
}

func (s *emailService) timestamp() string {
	return s.now().Format(model.DateLayout)
}

// load reads the table. On failure it returns an empty table together with
// the error so read paths can still render.
func (s *emailService) load(ctx context.Context) ([]*model.ProcessedEmail, error) {
	rows, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Errorf("error loading data: %v", err)
		return []*model.ProcessedEmail{}, err
	}
	return rows, nil
}

// snapshot reads the table for a read-only view. It shares the mutex with
// mutate because loading refreshes the backup.
func (s *emailService) snapshot(ctx context.Context) ([]*model.ProcessedEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// mutate runs fn inside one load-modify-save cycle. A load failure aborts the
// cycle so an unreadable table is never overwritten.
func (s *emailService) mutate(ctx context.Context, fn func(rows []*model.ProcessedEmail) ([]*model.ProcessedEmail, error)) ([]*model.ProcessedEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rows, err = fn(rows)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, rows); err != nil {
		s.logger.Errorf("error saving data: %v", err)
		return nil, err
	}
	return rows, nil
}

func (s *emailService) notify(eventType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(eventType, data)
	}
}

func (s *emailService) ProcessNewEmail(ctx context.Context, emailText string) (*model.ProcessedEmail, error) {
	emailText = model.NormalizeNewlines(emailText)
	if strings.TrimSpace(emailText) == "" {
		return nil, ErrEmptyEmail
	}
	if !s.EngineReady() {
		return nil, ErrEngineNotReady
	}

	name, address := extract.ExtractSenderInfo(emailText)
	subject := extract.ExtractSubject(emailText)

	result, err := s.engine.ProcessEmail(ctx, emailText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrProcessingFailed, strings.TrimPrefix(result.DraftReply, "Error processing email: "))
	}

	var entry *model.ProcessedEmail
	_, err = s.mutate(ctx, func(rows []*model.ProcessedEmail) ([]*model.ProcessedEmail, error) {
		entry = model.NewProcessedEmail(model.NextID(rows), name, address, subject,
			result.Category, model.NormalizeNewlines(result.DraftReply), emailText, s.now())
		return append([]*model.ProcessedEmail{entry}, rows...), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("email %d from %s classified as %s", entry.ID, address, entry.Category)
	s.notify(EventEmailProcessed, entry)
	return entry.Clone(), nil
}

func (s *emailService) ListEmails(ctx context.Context, filter Filter) ([]*model.ProcessedEmail, error) {
	rows, err := s.snapshot(ctx)
	return filter.Apply(rows), err
}

func (s *emailService) GetEmail(ctx context.Context, id int) (*model.ProcessedEmail, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if e := findByID(rows, id); e != nil {
		return e, nil
	}
	return nil, ErrEmailNotFound
}

func findByID(rows []*model.ProcessedEmail, id int) *model.ProcessedEmail {
	for _, r := range rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *emailService) updateOne(ctx context.Context, id int, fn func(e *model.ProcessedEmail) error) (*model.ProcessedEmail, error) {
	var updated *model.ProcessedEmail
	_, err := s.mutate(ctx, func(rows []*model.ProcessedEmail) ([]*model.ProcessedEmail, error) {
		e := findByID(rows, id)
		if e == nil {
			return nil, ErrEmailNotFound
		}
		if err := fn(e); err != nil {
			return nil, err
		}
		updated = e
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(EventTableChanged, map[string]interface{}{"id": id})
	return updated.Clone(), nil
}

func (s *emailService) UpdateEmail(ctx context.Context, id int, update EmailUpdate) (*model.ProcessedEmail, error) {
	if update.Status != nil {
		if _, ok := model.ParseStatus(string(*update.Status)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *update.Status)
		}
	}
	if update.Priority != nil {
		if _, ok := model.ParsePriority(string(*update.Priority)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *update.Priority)
		}
	}

	return s.updateOne(ctx, id, func(e *model.ProcessedEmail) error {
		if update.Status != nil {
			e.Status = *update.Status
		}
		if update.Priority != nil {
			e.Priority = *update.Priority
		}
		if update.Remarks != nil {
			e.Remarks = model.NormalizeNewlines(*update.Remarks)
		}
		if update.DraftReply != nil {
			e.DraftReply = model.NormalizeNewlines(*update.DraftReply)
		}
		return nil
	})
}

func (s *emailService) MarkStatus(ctx context.Context, id int, status model.Status) (*model.ProcessedEmail, error) {
	if _, ok := model.ParseStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.updateOne(ctx, id, func(e *model.ProcessedEmail) error {
		e.Status = status
		switch status {
		case model.StatusDone:
			e.Remarks = "Completed on " + s.timestamp()
		case model.StatusInProgress:
			e.Remarks = "Started working on " + s.timestamp()
		}
		return nil
	})
}

func (s *emailService) EditReply(ctx context.Context, id int, reply string) (*model.ProcessedEmail, error) {
	return s.updateOne(ctx, id, func(e *model.ProcessedEmail) error {
		e.DraftReply = model.NormalizeNewlines(reply)
		e.Remarks = "Reply edited on " + s.timestamp()
		return nil
	})
}

// BulkSetStatus sets status on the given rows, or on every row when ids is
// empty. It returns the number of rows changed.
func (s *emailService) BulkSetStatus(ctx context.Context, ids []int, status model.Status) (int, error) {
	if _, ok := model.ParseStatus(string(status)); !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	selected := idSet(ids)

	changed := 0
	_, err := s.mutate(ctx, func(rows []*model.ProcessedEmail) ([]*model.ProcessedEmail, error) {
		for _, r := range rows {
			if selected != nil && !selected[r.ID] {
				continue
			}
			if r.Status != status {
				r.Status = status
				changed++
			}
		}
		return rows, nil
	})
	if err != nil {
		return 0, err
	}
	s.notify(EventTableChanged, map[string]interface{}{"updated": changed})
	return changed, nil
}

func (s *emailService) DeleteEmails(ctx context.Context, ids []int) (int, error) {
	selected := idSet(ids)
	if selected == nil {
		return 0, nil
	}
	return s.deleteWhere(ctx, func(e *model.ProcessedEmail) bool { return selected[e.ID] })
}

func (s *emailService) DeleteCompleted(ctx context.Context) (int, error) {
	return s.deleteWhere(ctx, func(e *model.ProcessedEmail) bool { return e.Status == model.StatusDone })
}

func (s *emailService) deleteWhere(ctx context.Context, drop func(e *model.ProcessedEmail) bool) (int, error) {
	removed := 0
	_, err := s.mutate(ctx, func(rows []*model.ProcessedEmail) ([]*model.ProcessedEmail, error) {
		kept := rows[:0]
		for _, r := range rows {
			if drop(r) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	s.notify(EventTableChanged, map[string]interface{}{"deleted": removed})
	return removed, nil
}

func (s *emailService) ClearAll(ctx context.Context, confirm string) error {
	if confirm != ClearConfirmation {
		return ErrConfirmationRequired
	}

	s.mu.Lock()
	err := s.repo.Save(ctx, []*model.ProcessedEmail{})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Warn("all email data cleared")
	s.notify(EventTableChanged, map[string]interface{}{"cleared": true})
	return nil
}

func (s *emailService) RestoreBackup(ctx context.Context) (int, error) {
	s.mu.Lock()
	rows, err := s.repo.Restore(ctx)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.logger.Infof("restored %d rows from backup", len(rows))
	s.notify(EventTableChanged, map[string]interface{}{"restored": len(rows)})
	return len(rows), nil
}

func (s *emailService) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.snapshot(ctx)
	return s.buildStats(rows), err
}

func (s *emailService) buildStats(rows []*model.ProcessedEmail) *Stats {
	st := &Stats{
		Total:       len(rows),
		ByStatus:    make(map[model.Status]int, len(model.Statuses)),
		EngineReady: s.EngineReady(),
	}
	for _, status := range model.Statuses {
		st.ByStatus[status] = 0
	}
	if bc, ok := s.repo.(backupChecker); ok {
		st.BackupAvailable = bc.HasBackup()
	}

	categoryIndex := map[string]int{}
	for _, r := range rows {
		st.ByStatus[r.Status]++

		i, ok := categoryIndex[r.Category]
		if !ok {
			i = len(st.ByCategory)
			categoryIndex[r.Category] = i
			st.ByCategory = append(st.ByCategory, CategoryCount{Category: r.Category, Emoji: model.EmojiOf(r.Category)})
		}
		st.ByCategory[i].Count++

		if r.Status == model.StatusPending || r.Status == model.StatusInProgress {
			st.PendingActions++
		}
		if r.HasReply() {
			st.RepliesAvailable++
		}
		if isActionable(r) {
			st.RepliesReady++
			if r.Priority == model.PriorityHigh {
				st.HighPriorityActionable++
			}
		}
	}
	return st
}

// isActionable reports whether a reply can be sent and the row is not done.
func isActionable(e *model.ProcessedEmail) bool {
	return e.CanReply() && e.Status != model.StatusDone
}

func (s *emailService) ActionQueue(ctx context.Context, filter Filter) ([]*ActionItem, error) {
	rows, err := s.ListEmails(ctx, filter)
	return buildActions(rows), err
}

// buildActions sorts rows in place and wraps them as action items.
func buildActions(rows []*model.ProcessedEmail) []*ActionItem {
	SortByPriority(rows)

	items := make([]*ActionItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, &ActionItem{
			ProcessedEmail: r,
			Emoji:          model.EmojiOf(r.Category),
			ReplySubject:   mailto.ReplySubject(r.Subject),
			ReplyLink:      mailto.ReplyLink(r),
			Actionable:     isActionable(r),
		})
	}
	return items
}

// Categories lists the distinct categories present, in first-seen order.
func (s *emailService) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.snapshot(ctx)
	return distinctCategories(rows), err
}

func distinctCategories(rows []*model.ProcessedEmail) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range rows {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Overview builds the dashboard views from a single table read. On a load
// failure the views are empty and the error is returned alongside them.
func (s *emailService) Overview(ctx context.Context, filter Filter) (*Overview, error) {
	rows, err := s.snapshot(ctx)
	return &Overview{
		Stats:      s.buildStats(rows),
		Emails:     filter.Apply(rows),
		Actions:    buildActions(filter.Apply(rows)),
		Categories: distinctCategories(rows),
	}, err
}

func idSet(ids []int) map[int]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// IsPersistenceError reports whether err came from table storage.
func IsPersistenceError(err error) bool {
	return errors.Is(err, repository.ErrPersistence)
}
