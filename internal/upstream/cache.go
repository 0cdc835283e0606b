package upstream

import (
	"time"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/sirupsen/logrus"
)

// CacheTTL is how long a captured upstream response may be reused
const CacheTTL = 3 * 24 * time.Hour

// CachedResponse returns the raw upstream response stored in info when it
// is younger than CacheTTL. Otherwise the stale entry is dropped from info
// and "" is returned, telling the caller to fetch again. force drops any
// entry unconditionally.
func CachedResponse(info *models.ProjectInfo, force bool, now time.Time) string {
	log := logrus.WithField("src_repo", info.SrcRepo)

	if force {
		info.LastQuery = nil
		log.Debug("Force reload")
		return ""
	}

	if info.LastQuery == nil {
		return ""
	}

	if now.Sub(info.LastQuery.TimeStamp.Time) < CacheTTL {
		log.Debug("Reuse last query")
		return info.LastQuery.RawData
	}

	info.LastQuery = nil
	log.Debug("Last query too old")
	return ""
}

// Remember stores a freshly fetched upstream response in info
func Remember(info *models.ProjectInfo, raw string, now time.Time) {
	info.LastQuery = &models.LastQuery{
		TimeStamp: models.Timestamp{Time: now},
		RawData:   raw,
	}
}
