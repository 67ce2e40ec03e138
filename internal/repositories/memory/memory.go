// Package memory is an in-process implementation of the repositories used
// by service tests and single-instance development runs. It enforces the
// same uniqueness rules and conditional updates as the PostgreSQL store.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
)

// Repository holds every collection behind one mutex.
type Repository struct {
	mu sync.RWMutex
	// txMu serializes transactions so a failed one can restore its snapshot.
	txMu sync.Mutex

	users         map[string]*models.User
	projects      map[string]*models.Project
	applications  map[string]*models.Application
	invitations   map[string]*models.Invitation
	notifications []*models.Notification
	messages      []*models.Message

	// now is overridable so tests can order records deterministically.
	now func() time.Time
}

func New() *Repository {
	return &Repository{
		users:        make(map[string]*models.User),
		projects:     make(map[string]*models.Project),
		applications: make(map[string]*models.Application),
		invitations:  make(map[string]*models.Invitation),
		now:          time.Now,
	}
}

// SetClock replaces the timestamp source.
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Repository) User() repositories.UserRepository                 { return (*userRepo)(r) }
func (r *Repository) Project() repositories.ProjectRepository           { return (*projectRepo)(r) }
func (r *Repository) Application() repositories.ApplicationRepository   { return (*applicationRepo)(r) }
func (r *Repository) Invitation() repositories.InvitationRepository     { return (*invitationRepo)(r) }
func (r *Repository) Notification() repositories.NotificationRepository { return (*notificationRepo)(r) }
func (r *Repository) Message() repositories.MessageRepository           { return (*messageRepo)(r) }

// WithTransaction runs fn against the same store. Transactions run one at a
// time; when fn fails every collection is restored to its state at the start.
// Writes made outside a transaction while a failing one runs are lost.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snap := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users         map[string]*models.User
	projects      map[string]*models.Project
	applications  map[string]*models.Application
	invitations   map[string]*models.Invitation
	notifications []*models.Notification
	messages      []*models.Message
}

func (r *Repository) snapshot() snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := snapshot{
		users:         make(map[string]*models.User, len(r.users)),
		projects:      make(map[string]*models.Project, len(r.projects)),
		applications:  make(map[string]*models.Application, len(r.applications)),
		invitations:   make(map[string]*models.Invitation, len(r.invitations)),
		notifications: make([]*models.Notification, len(r.notifications)),
		messages:      make([]*models.Message, len(r.messages)),
	}
	for id, u := range r.users {
		snap.users[id] = cloneUser(u)
	}
	for id, p := range r.projects {
		snap.projects[id] = cloneProject(p)
	}
	for id, app := range r.applications {
		c := *app
		snap.applications[id] = &c
	}
	for id, inv := range r.invitations {
		c := *inv
		snap.invitations[id] = &c
	}
	for i, n := range r.notifications {
		c := *n
		snap.notifications[i] = &c
	}
	for i, m := range r.messages {
		c := *m
		snap.messages[i] = &c
	}
	return snap
}

func (r *Repository) restore(snap snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = snap.users
	r.projects = snap.projects
	r.applications = snap.applications
	r.invitations = snap.invitations
	r.notifications = snap.notifications
	r.messages = snap.messages
}

func (r *Repository) Ping(ctx context.Context) error { return nil }
func (r *Repository) Close() error                   { return nil }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// ===== USERS =====

type userRepo Repository

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Student != nil {
		s := *u.Student
		s.Skills = cloneStrings(u.Student.Skills)
		s.Gallery = cloneStrings(u.Student.Gallery)
		c.Student = &s
	}
	return &c
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrDuplicate
		}
		if user.Student != nil && existing.Student != nil && existing.Student.StudentID == user.Student.StudentID {
			return repositories.ErrDuplicate
		}
	}

	ensureID(&user.ID)
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Student != nil {
		user.Student.UserID = user.ID
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.UpdatedAt = r.now()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *userRepo) ListFreelancers(ctx context.Context, filters repositories.FreelancerFilters) ([]*models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.User
	for _, u := range r.users {
		if u.Student == nil {
			continue
		}
		if filters.Skill != nil && !u.Student.HasSkill(*filters.Skill) {
			continue
		}
		if filters.OpenForWork != nil && u.Student.OpenForWork != *filters.OpenForWork {
			continue
		}
		if filters.MaxPrice != nil && u.Student.Price > *filters.MaxPrice {
			continue
		}
		if q := strings.ToLower(filters.Query); q != "" &&
			!strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Major), q) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, filters.Limit, filters.Offset), int64(len(matched)), nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *userRepo) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Student != nil && u.Student.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

// ===== PROJECTS =====

type projectRepo Repository

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Skills = cloneStrings(p.Skills)
	c.RequestedBy = cloneStrings(p.RequestedBy)
	return &c
}

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&project.ID)
	if _, ok := r.projects[project.ID]; ok {
		return repositories.ErrDuplicate
	}
	now := r.now()
	project.CreatedAt, project.UpdatedAt = now, now
	if project.Status == "" {
		project.Status = models.ProjectOpen
	}
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneProject(p), nil
}

func (r *projectRepo) Update(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[project.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if p.Status != models.ProjectOpen {
		return repositories.ErrConflict
	}
	p.Title = project.Title
	p.Description = project.Description
	p.Budget = project.Budget
	p.Deadline = project.Deadline
	p.Skills = cloneStrings(project.Skills)
	p.UpdatedAt = r.now()
	project.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *projectRepo) List(ctx context.Context, filters repositories.ProjectFilters) ([]*models.Project, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Project
	for _, p := range r.projects {
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		if filters.OwnerID != nil && p.OwnerID != *filters.OwnerID {
			continue
		}
		if filters.AssignedTo != nil && !p.IsAssignee(*filters.AssignedTo) {
			continue
		}
		if filters.Skill != nil && !containsString(p.Skills, *filters.Skill) {
			continue
		}
		matched = append(matched, cloneProject(p))
	}

	asc := strings.EqualFold(filters.SortOrder, "asc")
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch filters.SortBy {
		case "deadline":
			less = a.Deadline.Before(b.Deadline)
		case "budget":
			less = a.Budget < b.Budget
		case "title":
			less = a.Title < b.Title
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})

	return page(matched, filters.Limit, filters.Offset), int64(len(matched)), nil
}

func (r *projectRepo) AddRequest(ctx context.Context, projectID, freelancerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[projectID]
	if !ok {
		return repositories.ErrNotFound
	}
	if !p.HasRequest(freelancerID) {
		p.RequestedBy = append(p.RequestedBy, freelancerID)
	}
	return nil
}

// modify applies fn to the stored project when match accepts it.
func (r *projectRepo) modify(id string, match func(*models.Project) bool, fn func(*models.Project)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if !match(p) {
		return repositories.ErrConflict
	}
	fn(p)
	p.UpdatedAt = r.now()
	return nil
}

func openAndUnassigned(p *models.Project) bool {
	return p.Status == models.ProjectOpen && p.AssignedTo == nil
}

func (r *projectRepo) Assign(ctx context.Context, projectID, freelancerID, freelancerName string) error {
	return r.modify(projectID, openAndUnassigned, func(p *models.Project) {
		progress := 0
		p.Status = models.ProjectInProgress
		p.AssignedTo = &freelancerID
		p.AssignedToName = &freelancerName
		p.Progress = &progress
		p.InvitedFreelancer = nil
	})
}

func (r *projectRepo) Invite(ctx context.Context, projectID, freelancerID string) error {
	return r.modify(projectID, openAndUnassigned, func(p *models.Project) {
		p.InvitedFreelancer = &freelancerID
	})
}

func (r *projectRepo) ClearInvitation(ctx context.Context, projectID, freelancerID string) error {
	err := r.modify(projectID, func(p *models.Project) bool {
		return p.InvitedFreelancer != nil && *p.InvitedFreelancer == freelancerID
	}, func(p *models.Project) {
		p.InvitedFreelancer = nil
	})
	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrConflict) {
		return nil
	}
	return err
}

func (r *projectRepo) UpdateStatus(ctx context.Context, projectID string, from, to models.ProjectStatus, progress *int) error {
	return r.modify(projectID, func(p *models.Project) bool {
		return p.Status == from
	}, func(p *models.Project) {
		p.Status = to
		if progress != nil {
			v := *progress
			p.Progress = &v
		}
	})
}

func (r *projectRepo) UpdateProgress(ctx context.Context, projectID, freelancerID string, progress int) error {
	return r.modify(projectID, func(p *models.Project) bool {
		return p.IsAssignee(freelancerID) &&
			(p.Status == models.ProjectInProgress || p.Status == models.ProjectRevision)
	}, func(p *models.Project) {
		p.Progress = &progress
	})
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ===== APPLICATIONS & INVITATIONS =====

type applicationRepo Repository

func matchesRequest(filters repositories.RequestFilters, projectID, freelancerID, ownerID string, status models.RequestStatus) bool {
	if filters.ProjectID != nil && projectID != *filters.ProjectID {
		return false
	}
	if filters.FreelancerID != nil && freelancerID != *filters.FreelancerID {
		return false
	}
	if filters.OwnerID != nil && ownerID != *filters.OwnerID {
		return false
	}
	if filters.Status != nil && status != *filters.Status {
		return false
	}
	return true
}

func (r *applicationRepo) Create(ctx context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.applications {
		if existing.ProjectID == app.ProjectID && existing.FreelancerID == app.FreelancerID {
			return repositories.ErrDuplicate
		}
	}
	ensureID(&app.ID)
	app.CreatedAt = r.now()
	if app.Status == "" {
		app.Status = models.RequestPending
	}
	c := *app
	r.applications[app.ID] = &c
	return nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.applications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *app
	return &c, nil
}

func (r *applicationRepo) GetByProjectAndFreelancer(ctx context.Context, projectID, freelancerID string) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, app := range r.applications {
		if app.ProjectID == projectID && app.FreelancerID == freelancerID {
			c := *app
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *applicationRepo) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.Application, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Application
	for _, app := range r.applications {
		if matchesRequest(filters, app.ProjectID, app.FreelancerID, app.OwnerID, app.Status) {
			c := *app
			matched = append(matched, &c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, filters.Limit, filters.Offset), int64(len(matched)), nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.applications[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if app.Status != models.RequestPending {
		return repositories.ErrConflict
	}
	app.Status = status
	app.RespondedAt = &respondedAt
	return nil
}

func (r *applicationRepo) RejectPending(ctx context.Context, projectID, keepID string, respondedAt time.Time) ([]*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rejected []*models.Application
	for _, app := range r.applications {
		if app.ProjectID != projectID || app.ID == keepID || app.Status != models.RequestPending {
			continue
		}
		app.Status = models.RequestRejected
		at := respondedAt
		app.RespondedAt = &at
		c := *app
		rejected = append(rejected, &c)
	}
	return rejected, nil
}

type invitationRepo Repository

func (r *invitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.invitations {
		if existing.ProjectID == inv.ProjectID && existing.FreelancerID == inv.FreelancerID {
			return repositories.ErrDuplicate
		}
	}
	ensureID(&inv.ID)
	inv.CreatedAt = r.now()
	if inv.Status == "" {
		inv.Status = models.RequestPending
	}
	c := *inv
	r.invitations[inv.ID] = &c
	return nil
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invitations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (r *invitationRepo) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.Invitation, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Invitation
	for _, inv := range r.invitations {
		if matchesRequest(filters, inv.ProjectID, inv.FreelancerID, inv.OwnerID, inv.Status) {
			c := *inv
			matched = append(matched, &c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, filters.Limit, filters.Offset), int64(len(matched)), nil
}

func (r *invitationRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, respondedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invitations[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if inv.Status != models.RequestPending {
		return repositories.ErrConflict
	}
	inv.Status = status
	inv.RespondedAt = &respondedAt
	return nil
}

// ===== NOTIFICATIONS =====

type notificationRepo Repository

func (r *notificationRepo) withSender(n *models.Notification) *models.Notification {
	c := *n
	c.Sender = nil
	if n.SenderID != nil {
		if u, ok := r.users[*n.SenderID]; ok {
			c.Sender = cloneUser(u)
		}
	}
	return &c
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&n.ID)
	n.CreatedAt = r.now()
	c := *n
	c.Sender = nil
	r.notifications = append(r.notifications, &c)
	return nil
}

func (r *notificationRepo) find(id string) *models.Notification {
	for _, n := range r.notifications {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.find(id)
	if n == nil {
		return nil, repositories.ErrNotFound
	}
	return r.withSender(n), nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.RecipientID != recipientID || (filters.UnreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, r.withSender(n))
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, filters.Limit, filters.Offset), int64(len(matched)), nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.find(id)
	if n == nil || n.RecipientID != recipientID {
		return repositories.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (r *notificationRepo) Delete(ctx context.Context, id, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// ===== MESSAGES =====

type messageRepo Repository

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&msg.ID)
	msg.CreatedAt = r.now()
	c := *msg
	r.messages = append(r.messages, &c)
	return nil
}

func (r *messageRepo) Conversation(ctx context.Context, a, b string, filters repositories.MessageFilters) ([]*models.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newestFirst []*models.Message
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		between := (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
		if !between || (filters.Before != nil && !m.CreatedAt.Before(*filters.Before)) {
			continue
		}
		c := *m
		newestFirst = append(newestFirst, &c)
	}

	total := int64(len(newestFirst))
	msgs := page(newestFirst, filters.Limit, filters.Offset)
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, total, nil
}

func (r *messageRepo) MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *messageRepo) Conversations(ctx context.Context, userID string) ([]repositories.ConversationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byPartner := make(map[string]*repositories.ConversationSummary)
	for _, m := range r.messages {
		var partner string
		switch userID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}

		s, ok := byPartner[partner]
		if !ok {
			s = &repositories.ConversationSummary{PartnerID: partner}
			byPartner[partner] = s
		}
		if m.CreatedAt.After(s.LastMessageAt) {
			s.LastMessageAt = m.CreatedAt
		}
		if m.ReceiverID == userID && !m.IsRead {
			s.UnreadCount++
		}
	}

	summaries := make([]repositories.ConversationSummary, 0, len(byPartner))
	for _, s := range byPartner {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt) })
	return summaries, nil
}
