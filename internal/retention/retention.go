package retention

import (
	"time"

	"github.com/samber/lo"
	"github.com/yz4230/deployboard/internal/entity"
)

const DefaultWindow = 30 * 24 * time.Hour

// Policy hides records older than Window. It never deletes anything itself.
type Policy struct {
	Window time.Duration
}

func Default() Policy { return Policy{Window: DefaultWindow} }

func (p Policy) window() time.Duration {
	if p.Window <= 0 {
		return DefaultWindow
	}
	return p.Window
}

// Cutoff is the oldest instant still inside the window.
func (p Policy) Cutoff(now time.Time) time.Time {
	return now.Add(-p.window())
}

func (p Policy) Expired(rec *entity.DeployRecord, now time.Time) bool {
	return rec.DeployedAt.Before(p.Cutoff(now))
}

func (p Policy) Filter(records []*entity.DeployRecord, now time.Time) []*entity.DeployRecord {
	cutoff := p.Cutoff(now)
	return lo.Filter(records, func(rec *entity.DeployRecord, _ int) bool {
		return rec != nil && !rec.DeployedAt.Before(cutoff)
	})
}
