package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/unicollab/unicollab/internal/auth"
	"github.com/unicollab/unicollab/internal/domain"
	"github.com/unicollab/unicollab/internal/logger"
	"github.com/unicollab/unicollab/internal/repository/memory"
)

// --- cache and notifier ---

type memCache struct {
	mu       sync.Mutex
	counts   map[uuid.UUID]int
	versions map[uuid.UUID]int64
	gets     int
	hits     int
}

func newMemCache() *memCache {
	return &memCache{counts: make(map[uuid.UUID]int), versions: make(map[uuid.UUID]int64)}
}

func (c *memCache) Get(_ context.Context, id uuid.UUID) (int, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	n, ok := c.counts[id]
	if ok {
		c.hits++
	}
	return n, c.versions[id], ok, nil
}

func (c *memCache) Set(_ context.Context, id uuid.UUID, n int, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[id] == version {
		c.counts[id] = n
	}
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[id]++
	delete(c.counts, id)
	return nil
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
	reads         []uuid.UUID
	joined        []uuid.UUID
	left          []uuid.UUID
	requests      []domain.RequestStatus
}

func (n *recordingNotifier) NotifyNotification(notice *domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, *notice)
}

func (n *recordingNotifier) NotifyNotificationsRead(recipientID uuid.UUID, _ *uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads = append(n.reads, recipientID)
}

func (n *recordingNotifier) NotifyMemberJoined(_ uuid.UUID, member domain.UserSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined = append(n.joined, member.ID)
}

func (n *recordingNotifier) NotifyMemberLeft(_ uuid.UUID, member domain.UserSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left = append(n.left, member.ID)
}

func (n *recordingNotifier) NotifyRequestUpdated(req *domain.CollaborationRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, req.Status)
}

// --- test environment ---

const testSecret = "test-secret-test-secret-test-sec"

type testEnv struct {
	store         *memory.Store
	cache         *memCache
	notifier      *recordingNotifier
	auth          *AuthService
	projects      *ProjectService
	requests      *CollaborationService
	notifications *NotificationService
	teams         *TeamService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	users := store.Users()
	projects := store.Projects()
	log := logger.Discard()

	env := &testEnv{
		store:    store,
		cache:    newMemCache(),
		notifier: &recordingNotifier{},
	}
	env.auth = NewAuthService(users, auth.NewTokenCodec(testSecret, time.Hour))
	env.notifications = NewNotificationService(store.Notifications(), env.cache, log)
	env.projects = NewProjectService(projects, users, env.notifications, log)
	env.requests = NewCollaborationService(store.Requests(), projects, users, env.notifications, log)
	env.teams = NewTeamService(store.Teams(), users)

	env.notifications.SetNotifier(env.notifier)
	env.projects.SetNotifier(env.notifier)
	env.requests.SetNotifier(env.notifier)
	return env
}

// addUser stores a user directly, skipping password hashing.
func (e *testEnv) addUser(t *testing.T, name string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:         uuid.New(),
		Email:      strings.ToLower(name) + "@uni.edu",
		Name:       name,
		University: "State University",
		Major:      "Computer Science",
		Skills:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

func (e *testEnv) createProject(t *testing.T, owner *domain.User, maxMembers *int) *domain.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), owner.ID, CreateProjectInput{
		Title:       owner.Name + "'s project",
		Description: "A student project",
		MaxMembers:  maxMembers,
	})
	if err != nil {
		t.Fatalf("creating project: %v", err)
	}
	return p
}

func (e *testEnv) unread(t *testing.T, userID uuid.UUID) []domain.Notification {
	t.Helper()
	unread := false
	list, err := e.notifications.List(context.Background(), userID, &unread, domain.Page{Limit: domain.MaxPageLimit})
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	return list.Data
}

func intPtr(n int) *int { return &n }
