// Package moderation holds the ban logic of the site: evaluating ban records,
// gating authentication, the staff command console and the expired ban sweep.
package moderation

import (
	"time"

	"github.com/plugfox/addonhub/internal/model"
)

// IsBanned - at least one record is permanent or expires after now.
func IsBanned(records []model.BanRecord, now time.Time) bool {
	for i := range records {
		if records[i].IsActive(now) {
			return true
		}
	}
	return false
}
