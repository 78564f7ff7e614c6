package db

import (
	"context"
	"sync"

	"github.com/BorisDmv/blog-api/internal/models"
)

// MemoryStore is a process-local Store. Every method holds the store lock for
// its whole read or write, so token swaps and comment appends are atomic.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	posts     map[string]*models.Post
	postOrder []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return &DuplicateError{Field: "email", Value: u.Email}
		}
		if existing.DisplayName == u.DisplayName {
			return &DuplicateError{Field: "displayName", Value: u.DisplayName}
		}
	}
	u.ID = models.NewID()
	s.users[u.ID] = &models.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
	}
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByToken(_ context.Context, id, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.CurrentToken == "" || u.CurrentToken != token {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) SetUserToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.CurrentToken = token
	return nil
}

func (s *MemoryStore) ClearUserToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok && u.CurrentToken == token {
		u.CurrentToken = ""
	}
	return nil
}

func (s *MemoryStore) HasUserWithRole(_ context.Context, role models.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListPosts(context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := make([]models.Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		posts = append(posts, clonePost(s.posts[id]))
	}
	return posts, nil
}

func (s *MemoryStore) CreatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = models.NewID()
	p.Comments = []models.Comment{}
	stored := clonePost(p)
	s.posts[p.ID] = &stored
	s.postOrder = append(s.postOrder, p.ID)
	return nil
}

func (s *MemoryStore) UpdatePost(_ context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(post)
	updated := clonePost(post)
	return &updated, nil
}

func (s *MemoryStore) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) AppendComment(_ context.Context, id string, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	post.Comments = append(post.Comments, c)
	return nil
}

func clonePost(p *models.Post) models.Post {
	copied := *p
	copied.Comments = append([]models.Comment{}, p.Comments...)
	return copied
}
