package inmemdb

import (
	"github.com/trezcool/ratiba/core/substitution"
)

type requestRepository struct {
	db *DB
}

func NewRequestRepository(db *DB) substitution.Repository {
	return &requestRepository{db: db}
}

func (repo *requestRepository) query() []substitution.Request {
	requests := make([]substitution.Request, 0, len(repo.db.requests))
	for _, r := range repo.db.requests {
		requests = append(requests, *r)
	}
	return requests
}

func (repo *requestRepository) CreateRequest(r substitution.Request) (substitution.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.requests[r.ID] = &r
	return r, nil
}

func (repo *requestRepository) GetRequestByID(id string) (substitution.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.requests[id]; ok {
		return *r, nil
	}
	return substitution.Request{}, substitution.ErrRequestNotFound
}

func (repo *requestRepository) QueryAllRequests() ([]substitution.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *requestRepository) FilterRequests(filter substitution.QueryFilter) ([]substitution.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]substitution.Request, 0)
	for _, r := range repo.query() {
		if filter.Match(r) {
			matches = append(matches, r)
		}
	}
	return matches, nil
}

func (repo *requestRepository) UpdateRequest(r substitution.Request) (substitution.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.requests[r.ID]; !ok {
		return substitution.Request{}, substitution.ErrRequestNotFound
	}
	repo.db.requests[r.ID] = &r
	return r, nil
}
