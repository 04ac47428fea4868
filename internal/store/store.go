package store

import "sync"

// State holds the record collections. Callers receive it only inside an
// Update or View critical section and must not retain references to it.
type State struct {
	Users            map[string]*User
	LeaveRequests    map[string]*LeaveRequest
	DocumentRequests map[string]*DocumentRequest
	OnboardingTasks  map[string]*OnboardingTask
	PolicyReceipts   map[string]*PolicyReceipt
}

// Store is the single in-memory repository. One mutex guards the whole
// state; an operation holds it for its entire read-check-write sequence so a
// concurrent actor can never observe an intermediate state.
type Store struct {
	mu    sync.Mutex
	state State
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		state: State{
			Users:            make(map[string]*User),
			LeaveRequests:    make(map[string]*LeaveRequest),
			DocumentRequests: make(map[string]*DocumentRequest),
			OnboardingTasks:  make(map[string]*OnboardingTask),
			PolicyReceipts:   make(map[string]*PolicyReceipt),
		},
	}
}

// Update executes fn with exclusive access to the state. An error returned
// by fn aborts the operation; fn must not have written anything before a
// failing check so failures leave no partial mutation behind.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// View executes fn with exclusive access for reading. It shares the single
// mutex with Update; fn must not mutate the state.
func (s *Store) View(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// User returns a copy of the user record, if present.
func (s *Store) User(id string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.Users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// UserByUsername returns a copy of the user with the given username.
func (s *Store) UserByUsername(username string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.state.Users {
		if u.Username == username {
			return *u, true
		}
	}
	return User{}, false
}
