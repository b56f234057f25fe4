package audit

import (
	"time"

	"github.com/google/uuid"

	"heirloom/pkg/domain"
)

// Action is what the nominee did. The enum is part of the API contract;
// clients report a subset of these through the log-action endpoint.
type Action string

const (
	ActionSessionStart        Action = "SESSION_START"
	ActionSessionEnd          Action = "SESSION_END"
	ActionViewedAsset         Action = "VIEWED_ASSET"
	ActionDownloadedAsset     Action = "DOWNLOADED_ASSET"
	ActionViewedNote          Action = "VIEWED_NOTE"
	ActionDownloadedNote      Action = "DOWNLOADED_NOTE"
	ActionViewedDashboard     Action = "VIEWED_DASHBOARD"
	ActionFailedAccessAttempt Action = "FAILED_ACCESS_ATTEMPT"
)

// clientReportable are the actions clients may submit themselves. Session
// start, dashboard views and failed attempts are recorded server-side only.
var clientReportable = map[Action]bool{
	ActionSessionEnd:      true,
	ActionViewedAsset:     true,
	ActionDownloadedAsset: true,
	ActionViewedNote:      true,
	ActionDownloadedNote:  true,
}

// ParseClientAction validates an action submitted through the API.
func ParseClientAction(s string) (Action, bool) {
	a := Action(s)
	return a, clientReportable[a]
}

// Status qualifies the recorded action.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusBlocked Status = "BLOCKED"
)

// DeviceClass is a coarse device family derived from the User-Agent.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "Desktop"
	DeviceMobile  DeviceClass = "Mobile"
	DeviceTablet  DeviceClass = "Tablet"
	DeviceUnknown DeviceClass = "Unknown"
)

// Entry is one record of the append-only trail. Entries are never updated
// or deleted once written.
type Entry struct {
	ID          uuid.UUID
	NomineeID   domain.NomineeID
	OwnerID     domain.OwnerID
	Action      Action
	Detail      string
	SubjectRef  string
	SourceIP    string
	UserAgent   string
	DeviceClass DeviceClass
	Status      Status
	Timestamp   time.Time
}
