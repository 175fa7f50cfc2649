package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SweepResult reports one track's expiration pass.
type SweepResult struct {
	Track        models.Track `json:"track"`
	Scanned      int          `json:"scanned"`
	ExpiredCount int          `json:"expiredCount"`
}

// Sweeper clears the entitlement flag on accounts whose plan has lapsed.
// Plan documents are left untouched so the expired plan remains inspectable;
// only the flag decides whether gated actions are allowed.
type Sweeper struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSweeper constructs a Sweeper.
func NewSweeper(conn *gorm.DB) *Sweeper {
	return &Sweeper{db: conn, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep runs one expiration pass over the given track.
func (s *Sweeper) Sweep(ctx context.Context, track models.Track) (SweepResult, error) {
	spec := mainTrack
	if track == models.TrackCRM {
		spec = crmTrack
	}
	now := s.now().UTC()
	result := SweepResult{Track: spec.name}

	var users []models.User
	if errFind := s.db.WithContext(ctx).
		Where(spec.flagColumn+" = ?", true).
		Find(&users).Error; errFind != nil {
		return result, Upstreamf("load subscribed users", errFind)
	}
	result.Scanned = len(users)

	var expired []uint64
	for i := range users {
		expiry, valid := trackExpiry(&users[i], spec.name)
		if !valid || expiry.Expired(now) {
			expired = append(expired, users[i].ID)
		}
	}
	if len(expired) == 0 {
		return result, nil
	}

	if errUpdate := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ?", expired).
		Updates(map[string]any{spec.flagColumn: false, "updated_at": now}).Error; errUpdate != nil {
		return result, Upstreamf("clear entitlement flags", errUpdate)
	}
	result.ExpiredCount = len(expired)
	log.WithFields(log.Fields{"track": spec.name, "expired": len(expired), "scanned": len(users)}).Info("entitlement: sweep complete")
	return result, nil
}

// SweepAll sweeps both tracks concurrently. A failure on one track does not
// stop the other; the first error is returned alongside whatever results
// completed.
func (s *Sweeper) SweepAll(ctx context.Context) ([]SweepResult, error) {
	tracks := []models.Track{models.TrackMain, models.TrackCRM}
	results := make([]SweepResult, len(tracks))
	errs := make([]error, len(tracks))

	var wg sync.WaitGroup
	for i, track := range tracks {
		wg.Add(1)
		go func(i int, track models.Track) {
			defer wg.Done()
			results[i], errs[i] = s.Sweep(ctx, track)
		}(i, track)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// trackExpiry reads the expiry of the given track's plan document. The
// second return is false when the account carries no valid plan document;
// the sweep treats such flagged rows as expired so they self-heal.
func trackExpiry(user *models.User, track models.Track) (models.Expiry, bool) {
	if track == models.TrackCRM {
		doc := user.CRMPlanInfo.Data()
		return doc.ExpiresAt, doc.Valid()
	}
	doc := user.PlanInfo.Data()
	return doc.ExpiresAt, doc.Valid()
}
