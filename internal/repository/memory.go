package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// MemoryStore backs every repository interface with mutex-guarded maps. It is
// the storage used by tests and by DSN-less development runs, and it upholds
// the same atomicity guarantees as the Postgres implementations: claim,
// resolve, reject, flag-create and like-toggle are single critical sections.
type MemoryStore struct {
	mu       sync.RWMutex
	issues   map[string]*domain.Issue
	likes    map[string]map[string]struct{}
	flags    map[string]*domain.FlagReport
	flagKeys map[string]string
	photos   map[string][]domain.IssuePhoto
	accounts map[string]*domain.Account
	byEmail  map[string]string
}

// NewMemoryStore initializes empty collections.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		issues:   make(map[string]*domain.Issue),
		likes:    make(map[string]map[string]struct{}),
		flags:    make(map[string]*domain.FlagReport),
		flagKeys: make(map[string]string),
		photos:   make(map[string][]domain.IssuePhoto),
		accounts: make(map[string]*domain.Account),
		byEmail:  make(map[string]string),
	}
}

// Issues returns the issue repository view of the store.
func (s *MemoryStore) Issues() IssueRepository { return &memoryIssueRepository{store: s} }

// Flags returns the flag repository view of the store.
func (s *MemoryStore) Flags() FlagRepository { return &memoryFlagRepository{store: s} }

// Photos returns the photo repository view of the store.
func (s *MemoryStore) Photos() PhotoRepository { return &memoryPhotoRepository{store: s} }

// Accounts returns the account repository view of the store.
func (s *MemoryStore) Accounts() AccountRepository { return &memoryAccountRepository{store: s} }

type memoryIssueRepository struct {
	store *MemoryStore
}

func (r *memoryIssueRepository) Create(_ context.Context, issue *domain.Issue) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	issue.ID = uuid.NewString()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	stored := *issue
	s.issues[issue.ID] = &stored
	return nil
}

func (r *memoryIssueRepository) Update(_ context.Context, issue *domain.Issue) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[issue.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = issue.Title
	stored.Description = issue.Description
	stored.Category = issue.Category
	stored.Priority = issue.Priority
	stored.Location = issue.Location
	stored.Latitude = issue.Latitude
	stored.Longitude = issue.Longitude
	stored.Feedback = issue.Feedback
	stored.UpdatedAt = time.Now()
	*issue = r.snapshot(stored)
	return nil
}

func (r *memoryIssueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := r.snapshot(stored)
	return &copied, nil
}

func (r *memoryIssueRepository) ListWithFilter(_ context.Context, filter IssueFilter) ([]domain.Issue, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Issue
	for _, stored := range s.issues {
		if !matchesFilter(stored, filter) {
			continue
		}
		result = append(result, r.snapshot(stored))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (r *memoryIssueRepository) Claim(_ context.Context, issueID, providerID string) (*domain.Issue, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[issueID]
	if !ok {
		return nil, ErrNoTransition
	}
	if stored.AssigneeID != nil || !isClaimable(stored.Status) {
		return nil, ErrNoTransition
	}
	assignee := providerID
	stored.AssigneeID = &assignee
	stored.Status = domain.IssueStatusInProgress
	stored.UpdatedAt = time.Now()
	copied := r.snapshot(stored)
	return &copied, nil
}

func (r *memoryIssueRepository) Resolve(_ context.Context, issueID, providerID string) (*domain.Issue, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[issueID]
	if !ok {
		return nil, ErrNoTransition
	}
	if stored.Status != domain.IssueStatusInProgress ||
		stored.AssigneeID == nil || *stored.AssigneeID != providerID {
		return nil, ErrNoTransition
	}
	stored.Status = domain.IssueStatusResolved
	stored.UpdatedAt = time.Now()
	copied := r.snapshot(stored)
	return &copied, nil
}

func (r *memoryIssueRepository) Reject(_ context.Context, issueID string) (*domain.Issue, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.issues[issueID]
	if !ok {
		return nil, ErrNoTransition
	}
	if stored.Status.IsTerminal() {
		return nil, ErrNoTransition
	}
	stored.Status = domain.IssueStatusRejected
	stored.UpdatedAt = time.Now()
	copied := r.snapshot(stored)
	return &copied, nil
}

func (r *memoryIssueRepository) ToggleLike(_ context.Context, issueID, actorID string) (bool, int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[issueID]; !ok {
		return false, 0, ErrNotFound
	}
	set, ok := s.likes[issueID]
	if !ok {
		set = make(map[string]struct{})
		s.likes[issueID] = set
	}
	var liked bool
	if _, exists := set[actorID]; exists {
		delete(set, actorID)
		liked = false
	} else {
		set[actorID] = struct{}{}
		liked = true
	}
	return liked, len(set), nil
}

func (r *memoryIssueRepository) HasLiked(_ context.Context, issueID, actorID string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.likes[issueID]
	if !ok {
		return false, nil
	}
	_, liked := set[actorID]
	return liked, nil
}

func (r *memoryIssueRepository) Delete(_ context.Context, issueID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[issueID]; !ok {
		return ErrNotFound
	}
	delete(s.issues, issueID)
	delete(s.likes, issueID)
	delete(s.photos, issueID)
	for id, flag := range s.flags {
		if flag.IssueID == issueID {
			delete(s.flagKeys, flagKey(flag.IssueID, flag.ReporterID))
			delete(s.flags, id)
		}
	}
	return nil
}

func (r *memoryIssueRepository) snapshot(stored *domain.Issue) domain.Issue {
	copied := *stored
	copied.LikesCount = len(r.store.likes[stored.ID])
	return copied
}

func matchesFilter(issue *domain.Issue, filter IssueFilter) bool {
	if filter.ReporterID != nil && issue.ReporterID != *filter.ReporterID {
		return false
	}
	if filter.AssigneeID != nil {
		if issue.AssigneeID == nil || *issue.AssigneeID != *filter.AssigneeID {
			return false
		}
	}
	if filter.Category != nil && issue.Category != *filter.Category {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, issue.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, issue.Priority) {
		return false
	}
	return true
}

func containsStatus(statuses []domain.IssueStatus, status domain.IssueStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.IssuePriority, priority domain.IssuePriority) bool {
	for _, p := range priorities {
		if p == priority {
			return true
		}
	}
	return false
}

func isClaimable(status domain.IssueStatus) bool {
	for _, s := range domain.ClaimableStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

func paginate(issues []domain.Issue, limit, offset int) []domain.Issue {
	if limit < 0 {
		return issues
	}
	if limit == 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(issues) {
		return nil
	}
	end := offset + limit
	if end > len(issues) {
		end = len(issues)
	}
	return issues[offset:end]
}

type memoryFlagRepository struct {
	store *MemoryStore
}

func (r *memoryFlagRepository) Create(_ context.Context, flag *domain.FlagReport) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := flagKey(flag.IssueID, flag.ReporterID)
	if _, exists := s.flagKeys[key]; exists {
		return ErrDuplicateFlag
	}
	flag.ID = uuid.NewString()
	flag.CreatedAt = time.Now()
	stored := *flag
	s.flags[flag.ID] = &stored
	s.flagKeys[key] = flag.ID
	return nil
}

func (r *memoryFlagRepository) GetByID(_ context.Context, id string) (*domain.FlagReport, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.flags[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *memoryFlagRepository) List(_ context.Context, reviewed *bool, limit, offset int) ([]domain.FlagReport, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FlagReport
	for _, stored := range s.flags {
		if reviewed != nil && stored.Reviewed != *reviewed {
			continue
		}
		result = append(result, *stored)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *memoryFlagRepository) MarkReviewed(_ context.Context, id string) (*domain.FlagReport, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.flags[id]
	if !ok {
		return nil, ErrNotFound
	}
	stored.Reviewed = true
	copied := *stored
	return &copied, nil
}

func (r *memoryFlagRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.flags[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.flagKeys, flagKey(stored.IssueID, stored.ReporterID))
	delete(s.flags, id)
	return nil
}

func (r *memoryFlagRepository) DeleteByIssue(_ context.Context, issueID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, flag := range s.flags {
		if flag.IssueID == issueID {
			delete(s.flagKeys, flagKey(flag.IssueID, flag.ReporterID))
			delete(s.flags, id)
		}
	}
	return nil
}

func flagKey(issueID, reporterID string) string {
	return issueID + "|" + reporterID
}

type memoryPhotoRepository struct {
	store *MemoryStore
}

func (r *memoryPhotoRepository) Create(_ context.Context, photo *domain.IssuePhoto) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[photo.IssueID]; !ok {
		return ErrNotFound
	}
	photo.ID = uuid.NewString()
	photo.UploadedAt = time.Now()
	s.photos[photo.IssueID] = append(s.photos[photo.IssueID], *photo)
	return nil
}

func (r *memoryPhotoRepository) ListByIssue(_ context.Context, issueID string) ([]domain.IssuePhoto, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.IssuePhoto{}, s.photos[issueID]...), nil
}

func (r *memoryPhotoRepository) DeleteByIssue(_ context.Context, issueID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.photos, issueID)
	return nil
}

type memoryAccountRepository struct {
	store *MemoryStore
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(account.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrEmailTaken
	}
	now := time.Now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	stored := *account
	s.accounts[account.ID] = &stored
	s.byEmail[email] = account.ID
	return nil
}

func (r *memoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(stored.Email))
	account.UpdatedAt = time.Now()
	copied := *account
	s.accounts[account.ID] = &copied
	s.byEmail[strings.ToLower(account.Email)] = account.ID
	return nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s.accounts[id]
	return &copied, nil
}
