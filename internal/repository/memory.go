package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"htech-admin/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps every table in RAM. It is meant for local runs and tests
// where losing all state on restart is fine. All repositories handed out by
// a store share one lock so the granted-actions join sees a consistent view.
type MemoryStore struct {
	Users     IUserRepository
	Sessions  SessionRepository
	Resources ResourceRepository
	Roles     RoleRepository
}

type memoryTables struct {
	sync.Mutex

	users       map[string]models.User
	sessions    map[string]models.UserSession
	resources   map[string]models.Resource
	details     map[string]models.ResourceDetail
	actions     map[string]models.Action
	roles       map[string]models.Role
	userRoles   map[string]map[string]models.UserRole
	roleActions map[string]map[string]models.ActionGrant
	userActions map[string]map[string]models.ActionGrant
}

func NewMemoryStore() *MemoryStore {
	t := &memoryTables{
		users:       map[string]models.User{},
		sessions:    map[string]models.UserSession{},
		resources:   map[string]models.Resource{},
		details:     map[string]models.ResourceDetail{},
		actions:     map[string]models.Action{},
		roles:       map[string]models.Role{},
		userRoles:   map[string]map[string]models.UserRole{},
		roleActions: map[string]map[string]models.ActionGrant{},
		userActions: map[string]map[string]models.ActionGrant{},
	}
	return &MemoryStore{
		Users:     &memoryUserRepository{t},
		Sessions:  &memorySessionRepository{t},
		Resources: &memoryResourceRepository{t},
		Roles:     &memoryRoleRepository{t},
	}
}

type memoryUserRepository struct{ t *memoryTables }

func (m *memoryUserRepository) CreateUser(_ context.Context, user *models.User) error {
	m.t.Lock()
	defer m.t.Unlock()

	for _, existing := range m.t.users {
		if existing.Username == user.Username {
			return ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.t.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.t.Lock()
	defer m.t.Unlock()

	user, ok := m.t.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *memoryUserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.t.Lock()
	defer m.t.Unlock()

	for _, user := range m.t.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryUserRepository) GetAllUsers(_ context.Context, limit, offset int) ([]*models.User, error) {
	m.t.Lock()
	defer m.t.Unlock()

	all := make([]*models.User, 0, len(m.t.users))
	for _, user := range m.t.users {
		u := user
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*models.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memoryUserRepository) CountUsers(_ context.Context) (int, error) {
	m.t.Lock()
	defer m.t.Unlock()
	return len(m.t.users), nil
}

func (m *memoryUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return m.update(userID, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (m *memoryUserRepository) UpdateStatus(_ context.Context, userID string, status models.UserStatus) error {
	return m.update(userID, func(u *models.User) { u.Status = status })
}

func (m *memoryUserRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	return m.update(userID, func(u *models.User) { u.LastLogin = &at })
}

func (m *memoryUserRepository) update(userID string, fn func(u *models.User)) error {
	m.t.Lock()
	defer m.t.Unlock()

	user, ok := m.t.users[userID]
	if !ok {
		return ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	m.t.users[userID] = user
	return nil
}

type memorySessionRepository struct{ t *memoryTables }

func (m *memorySessionRepository) GetByUserID(_ context.Context, userID string) (*models.UserSession, error) {
	m.t.Lock()
	defer m.t.Unlock()

	session, ok := m.t.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (m *memorySessionRepository) Upsert(_ context.Context, session *models.UserSession) error {
	m.t.Lock()
	defer m.t.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.t.sessions[session.UserID]; ok {
		session.ID = existing.ID
		session.CreatedBy = existing.CreatedBy
		session.CreatedAt = existing.CreatedAt
	} else {
		if session.ID == "" {
			session.ID = uuid.New().String()
		}
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	m.t.sessions[session.UserID] = *session
	return nil
}

func (m *memorySessionRepository) Replace(_ context.Context, userID, expectedHash string, next *models.UserSession) error {
	m.t.Lock()
	defer m.t.Unlock()

	existing, ok := m.t.sessions[userID]
	if !ok {
		return ErrNotFound
	}
	if !hashesEqual(existing.RefreshTokenHash, expectedHash) {
		return ErrSessionConflict
	}
	next.ID = existing.ID
	next.UserID = userID
	next.CreatedBy = existing.CreatedBy
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	m.t.sessions[userID] = *next
	return nil
}

func (m *memorySessionRepository) Delete(_ context.Context, userID string) error {
	m.t.Lock()
	defer m.t.Unlock()
	delete(m.t.sessions, userID)
	return nil
}

type memoryResourceRepository struct{ t *memoryTables }

func (m *memoryResourceRepository) CreateResource(_ context.Context, resource *models.Resource) error {
	m.t.Lock()
	defer m.t.Unlock()

	if _, ok := m.t.resources[resource.Alias]; ok {
		return ErrConflict
	}
	if resource.ID == "" {
		resource.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	resource.CreatedAt, resource.UpdatedAt = now, now
	m.t.resources[resource.Alias] = *resource
	return nil
}

func (m *memoryResourceRepository) GetResourceByAlias(_ context.Context, alias string) (*models.Resource, error) {
	m.t.Lock()
	defer m.t.Unlock()

	resource, ok := m.t.resources[alias]
	if !ok {
		return nil, ErrNotFound
	}
	return &resource, nil
}

func (m *memoryResourceRepository) ListResources(_ context.Context) ([]*models.Resource, error) {
	m.t.Lock()
	defer m.t.Unlock()

	resources := make([]*models.Resource, 0, len(m.t.resources))
	for _, resource := range m.t.resources {
		r := resource
		resources = append(resources, &r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Alias < resources[j].Alias })
	return resources, nil
}

func (m *memoryResourceRepository) RenameResource(_ context.Context, oldAlias, newAlias, name string) error {
	m.t.Lock()
	defer m.t.Unlock()

	resource, ok := m.t.resources[oldAlias]
	if !ok {
		return ErrNotFound
	}
	if _, taken := m.t.resources[newAlias]; taken && newAlias != oldAlias {
		return ErrConflict
	}
	now := time.Now().UTC()
	delete(m.t.resources, oldAlias)
	resource.Alias = newAlias
	if name != "" {
		resource.Name = name
	}
	resource.UpdatedAt = now
	m.t.resources[newAlias] = resource

	for alias, detail := range m.t.details {
		if detail.ResourceAlias == oldAlias {
			detail.ResourceAlias = newAlias
			detail.UpdatedAt = now
			m.t.details[alias] = detail
		}
	}
	return nil
}

func (m *memoryResourceRepository) CreateResourceDetail(_ context.Context, detail *models.ResourceDetail) error {
	m.t.Lock()
	defer m.t.Unlock()

	if _, ok := m.t.details[detail.Alias]; ok {
		return ErrConflict
	}
	if detail.ID == "" {
		detail.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	detail.CreatedAt, detail.UpdatedAt = now, now
	m.t.details[detail.Alias] = *detail
	return nil
}

func (m *memoryResourceRepository) GetResourceDetailByAlias(_ context.Context, alias string) (*models.ResourceDetail, error) {
	m.t.Lock()
	defer m.t.Unlock()

	detail, ok := m.t.details[alias]
	if !ok {
		return nil, ErrNotFound
	}
	return &detail, nil
}

func (m *memoryResourceRepository) ListResourceDetails(_ context.Context) ([]*models.ResourceDetail, error) {
	m.t.Lock()
	defer m.t.Unlock()

	details := make([]*models.ResourceDetail, 0, len(m.t.details))
	for _, detail := range m.t.details {
		d := detail
		details = append(details, &d)
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].ResourceAlias != details[j].ResourceAlias {
			return details[i].ResourceAlias < details[j].ResourceAlias
		}
		return details[i].Alias < details[j].Alias
	})
	return details, nil
}

func (m *memoryResourceRepository) CreateAction(_ context.Context, action *models.Action) error {
	m.t.Lock()
	defer m.t.Unlock()

	for _, existing := range m.t.actions {
		if existing.ResourceDetailAlias == action.ResourceDetailAlias && existing.Name == action.Name {
			return ErrConflict
		}
	}
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	action.CreatedAt, action.UpdatedAt = now, now
	m.t.actions[action.ID] = *action
	return nil
}

func (m *memoryResourceRepository) GetActionByID(_ context.Context, id string) (*models.Action, error) {
	m.t.Lock()
	defer m.t.Unlock()

	action, ok := m.t.actions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &action, nil
}

func (m *memoryResourceRepository) ListActions(_ context.Context) ([]*models.Action, error) {
	m.t.Lock()
	defer m.t.Unlock()

	actions := make([]*models.Action, 0, len(m.t.actions))
	for _, action := range m.t.actions {
		a := action
		actions = append(actions, &a)
	}
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].ResourceDetailAlias != actions[j].ResourceDetailAlias {
			return actions[i].ResourceDetailAlias < actions[j].ResourceDetailAlias
		}
		return actions[i].Name < actions[j].Name
	})
	return actions, nil
}

func (m *memoryResourceRepository) SetActionActive(_ context.Context, id string, active bool) error {
	m.t.Lock()
	defer m.t.Unlock()

	action, ok := m.t.actions[id]
	if !ok {
		return ErrNotFound
	}
	action.IsActive = active
	action.UpdatedAt = time.Now().UTC()
	m.t.actions[id] = action
	return nil
}

type memoryRoleRepository struct{ t *memoryTables }

func (m *memoryRoleRepository) CreateRole(_ context.Context, role *models.Role) error {
	m.t.Lock()
	defer m.t.Unlock()

	for _, existing := range m.t.roles {
		if existing.Name == role.Name {
			return ErrConflict
		}
	}
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	role.CreatedAt = time.Now().UTC()
	m.t.roles[role.ID] = *role
	return nil
}

func (m *memoryRoleRepository) GetRoleByID(_ context.Context, id string) (*models.Role, error) {
	m.t.Lock()
	defer m.t.Unlock()

	role, ok := m.t.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &role, nil
}

func (m *memoryRoleRepository) GetRoleByName(_ context.Context, name string) (*models.Role, error) {
	m.t.Lock()
	defer m.t.Unlock()

	for _, role := range m.t.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRoleRepository) GetRoles(_ context.Context) ([]*models.Role, error) {
	m.t.Lock()
	defer m.t.Unlock()

	roles := make([]*models.Role, 0, len(m.t.roles))
	for _, role := range m.t.roles {
		r := role
		roles = append(roles, &r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (m *memoryRoleRepository) AssignRoleToUser(_ context.Context, userID, roleID string, assignedBy *string) error {
	m.t.Lock()
	defer m.t.Unlock()

	assigned, ok := m.t.userRoles[userID]
	if !ok {
		assigned = map[string]models.UserRole{}
		m.t.userRoles[userID] = assigned
	}
	if _, exists := assigned[roleID]; exists {
		return nil
	}
	assigned[roleID] = models.UserRole{
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: assignedBy,
		AssignedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memoryRoleRepository) RemoveRoleFromUser(_ context.Context, userID, roleID string) error {
	m.t.Lock()
	defer m.t.Unlock()

	if _, ok := m.t.userRoles[userID][roleID]; !ok {
		return ErrNotFound
	}
	delete(m.t.userRoles[userID], roleID)
	return nil
}

func (m *memoryRoleRepository) GetUserRoles(_ context.Context, userID string) ([]*models.Role, error) {
	m.t.Lock()
	defer m.t.Unlock()

	roles := []*models.Role{}
	for roleID := range m.t.userRoles[userID] {
		if role, ok := m.t.roles[roleID]; ok {
			r := role
			roles = append(roles, &r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (m *memoryRoleRepository) SetRoleActionGrant(_ context.Context, roleID, actionID string, active bool) error {
	m.t.Lock()
	defer m.t.Unlock()
	setGrant(m.t.roleActions, roleID, actionID, active)
	return nil
}

func (m *memoryRoleRepository) SetUserActionGrant(_ context.Context, userID, actionID string, active bool) error {
	m.t.Lock()
	defer m.t.Unlock()
	setGrant(m.t.userActions, userID, actionID, active)
	return nil
}

func setGrant(grants map[string]map[string]models.ActionGrant, subjectID, actionID string, active bool) {
	bySubject, ok := grants[subjectID]
	if !ok {
		bySubject = map[string]models.ActionGrant{}
		grants[subjectID] = bySubject
	}
	bySubject[actionID] = models.ActionGrant{
		SubjectID: subjectID,
		ActionID:  actionID,
		IsActive:  active,
		UpdatedAt: time.Now().UTC(),
	}
}

func (m *memoryRoleRepository) GetGrantedActions(_ context.Context, userID string) ([]models.GrantRow, error) {
	m.t.Lock()
	defer m.t.Unlock()

	seen := map[models.GrantRow]struct{}{}
	rows := []models.GrantRow{}
	collect := func(grants map[string]models.ActionGrant) {
		for _, grant := range grants {
			if !grant.IsActive {
				continue
			}
			row, ok := m.t.reachable(grant.ActionID)
			if !ok {
				continue
			}
			if _, dup := seen[row]; dup {
				continue
			}
			seen[row] = struct{}{}
			rows = append(rows, row)
		}
	}

	collect(m.t.userActions[userID])
	for roleID := range m.t.userRoles[userID] {
		role, ok := m.t.roles[roleID]
		if !ok || !role.IsActive {
			continue
		}
		collect(m.t.roleActions[roleID])
	}
	return rows, nil
}

// reachable resolves an action to its (path, action) pair when the action,
// its detail and its resource are all active. Callers hold the lock.
func (t *memoryTables) reachable(actionID string) (models.GrantRow, bool) {
	action, ok := t.actions[actionID]
	if !ok || !action.IsActive {
		return models.GrantRow{}, false
	}
	detail, ok := t.details[action.ResourceDetailAlias]
	if !ok || !detail.IsActive {
		return models.GrantRow{}, false
	}
	resource, ok := t.resources[detail.ResourceAlias]
	if !ok || !resource.IsActive {
		return models.GrantRow{}, false
	}
	return models.GrantRow{Path: detail.Path, Action: action.Name}, true
}
