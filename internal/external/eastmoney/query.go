package eastmoney

import (
	"context"
	"fmt"

	"github.com/wonny/fundwatch/internal/contracts"
)

// LatestChange returns the official % change of the most recent NAV record
// (percent mode). ok is false when the feed has no record or left the change blank.
func LatestChange(ctx context.Context, src contracts.NavSource, fundCode string) (point contracts.NavPoint, ok bool, err error) {
	records, err := src.FetchHistory(ctx, fundCode, 1)
	if err != nil {
		return contracts.NavPoint{}, false, err
	}
	if len(records) == 0 || !records[0].HasChange || !contracts.IsFinite(records[0].ChangePct) {
		return contracts.NavPoint{}, false, nil
	}
	return contracts.NavPoint{Value: records[0].ChangePct, Date: records[0].Date}, true, nil
}

// LatestNavDiff derives the latest % change from the two most recent unit NAVs
// (NAV-diff mode): (nav0 - nav1) / nav1 * 100.
func LatestNavDiff(ctx context.Context, src contracts.NavSource, fundCode string) (point contracts.NavPoint, ok bool, err error) {
	records, err := src.FetchHistory(ctx, fundCode, 2)
	if err != nil {
		return contracts.NavPoint{}, false, err
	}
	if len(records) < 2 {
		return contracts.NavPoint{}, false, nil
	}

	latest, previous := records[0], records[1]
	if previous.NAV <= 0 {
		return contracts.NavPoint{}, false, fmt.Errorf("fund %s: previous NAV %v on %s", fundCode, previous.NAV, previous.Date)
	}
	// a blank or unparsable latest NAV is not published yet
	if latest.NAV <= 0 {
		return contracts.NavPoint{}, false, nil
	}

	pct := (latest.NAV - previous.NAV) / previous.NAV * 100
	if !contracts.IsFinite(pct) {
		return contracts.NavPoint{}, false, fmt.Errorf("fund %s: non-finite NAV change on %s", fundCode, latest.Date)
	}

	return contracts.NavPoint{Value: pct, Date: latest.Date}, true, nil
}
