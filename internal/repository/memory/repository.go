package memory

import (
	"sync"
	"time"

	"github.com/omarshaarawi/fplforecaster/internal/models"
)

type Repository struct {
	bootstrap   *models.BootstrapResponse
	lastUpdated time.Time
	teamID      int
	mu          sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) SaveBootstrap(b *models.BootstrapResponse, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bootstrap = b
	r.lastUpdated = at
}

// GetBootstrap returns the cached snapshot and when it was stored.
func (r *Repository) GetBootstrap() (*models.BootstrapResponse, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bootstrap, r.lastUpdated
}

func (r *Repository) SaveTeamID(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teamID = id
}

func (r *Repository) GetTeamID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.teamID
}
