package user

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// User is identity only. Nothing on the signaling hot path mutates it.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserService struct {
	sync.Mutex

	users map[string]User
}

func (s *UserService) Create(name string) User {
	s.Lock()
	defer s.Unlock()

	user := User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	s.users[user.ID] = user
	return user
}

func (s *UserService) Find(id string) (User, error) {
	s.Lock()
	defer s.Unlock()

	user, exist := s.users[id]
	if !exist {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func NewUserService() *UserService {
	return &UserService{
		users: make(map[string]User),
	}
}
