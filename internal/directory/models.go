package directory

import "time"

// PersonType categorizes people for event eligibility and batch filtering.
type PersonType string

const (
	PersonTypeMember   PersonType = "member"
	PersonTypeEmployee PersonType = "employee"
	PersonTypeProvider PersonType = "provider"
	PersonTypeGuest    PersonType = "guest"
)

func (t PersonType) Valid() bool {
	switch t {
	case PersonTypeMember, PersonTypeEmployee, PersonTypeProvider, PersonTypeGuest:
		return true
	default:
		return false
	}
}

// GuestType refines guests; only persons of type guest carry one.
type GuestType string

const (
	GuestTypeMemberGuest  GuestType = "member_guest"
	GuestTypeEventVisitor GuestType = "event_visitor"
)

func (t GuestType) Valid() bool {
	switch t {
	case GuestTypeMemberGuest, GuestTypeEventVisitor:
		return true
	default:
		return false
	}
}

// Person is a subject that can be granted or denied access.
//
// Invariant: GuestType is set if and only if PersonType is guest.
type Person struct {
	ID             string     `json:"id" db:"id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	DNI            string     `json:"dni" db:"dni"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone,omitempty" db:"phone"`
	CredentialCode string     `json:"credential_code,omitempty" db:"credential_code"`
	FacialEnrolled bool       `json:"facial_enrolled" db:"facial_enrolled"`
	PersonType     PersonType `json:"person_type" db:"person_type"`
	GuestType      GuestType  `json:"guest_type,omitempty" db:"guest_type"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Site is a physical location containing access points.
type Site struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
}

// AccessPoint is a gate within a site. Name is unique per site.
type AccessPoint struct {
	ID          string `json:"id" db:"id"`
	SiteID      string `json:"site_id" db:"site_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

// DeviceType distinguishes the hardware guarding an access point.
type DeviceType string

const (
	DeviceTypeTurnstile DeviceType = "turnstile"
	DeviceTypeDoor      DeviceType = "door"
)

// AccessDevice is a physical reader attached to an access point.
type AccessDevice struct {
	ID                  string     `json:"id" db:"id"`
	AccessPointID       string     `json:"access_point_id" db:"access_point_id"`
	Name                string     `json:"name" db:"name"`
	DeviceType          DeviceType `json:"device_type" db:"device_type"`
	HasCredentialReader bool       `json:"has_credential_reader" db:"has_credential_reader"`
	HasQRReader         bool       `json:"has_qr_reader" db:"has_qr_reader"`
	HasFacialReader     bool       `json:"has_facial_reader" db:"has_facial_reader"`
}

// Event is a site-scoped happening with category allow-lists.
// Whitelist entries scoped to an event must satisfy those allow-lists.
type Event struct {
	ID                 string       `json:"id" db:"id"`
	SiteID             string       `json:"site_id" db:"site_id"`
	Name               string       `json:"name" db:"name"`
	Description        string       `json:"description,omitempty" db:"description"`
	StartDate          time.Time    `json:"start_date" db:"start_date"`
	EndDate            time.Time    `json:"end_date" db:"end_date"`
	AllowedPersonTypes []PersonType `json:"allowed_person_types" db:"allowed_person_types"`
	AllowedGuestTypes  []GuestType  `json:"allowed_guest_types" db:"allowed_guest_types"`
}

// AllowsPerson reports whether the event's allow-lists admit the person.
// Guests match against the guest-type list, everyone else against the
// person-type list.
func (e Event) AllowsPerson(p Person) bool {
	if p.PersonType == PersonTypeGuest {
		for _, gt := range e.AllowedGuestTypes {
			if gt == p.GuestType {
				return true
			}
		}
		return false
	}
	for _, pt := range e.AllowedPersonTypes {
		if pt == p.PersonType {
			return true
		}
	}
	return false
}

// GuestInvitation ties a guest to an event.
//
// Invariants:
// - the person must be of type guest
// - the invitation guest type must match the person's
// - the event must admit that guest type
type GuestInvitation struct {
	ID        string    `json:"id" db:"id"`
	PersonID  string    `json:"person_id" db:"person_id"`
	EventID   string    `json:"event_id" db:"event_id"`
	GuestType GuestType `json:"guest_type" db:"guest_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
