package model

// Every change to the attendee buckets goes through the methods in this file
// so that RegisteredAttendeesCount always equals the size of both buckets.

func (e *Event) syncRegisteredCount() {
	e.RegisteredAttendeesCount = e.RegisteredAttendees.Len() + e.AutoRegisteredAttendees.Len()
}

// Register adds userID to the self-registered bucket. It returns false when
// the user already holds a seat in either bucket.
func (e *Event) Register(userID string) bool {
	if e.IsRegistered(userID) {
		return false
	}
	added := e.RegisteredAttendees.Add(userID)
	e.syncRegisteredCount()
	return added
}

// Unregister removes userID from whichever bucket holds them.
func (e *Event) Unregister(userID string) bool {
	removed := e.RegisteredAttendees.Remove(userID)
	if e.AutoRegisteredAttendees.Remove(userID) {
		removed = true
	}
	e.syncRegisteredCount()
	return removed
}

// ClearAttendees empties every attendee list and turns auto-registration
// off. It is applied when an event becomes public.
func (e *Event) ClearAttendees() {
	e.MandatoryAttendees = UserSet{}
	e.OptionalAttendees = UserSet{}
	e.RegisteredAttendees = UserSet{}
	e.AutoRegisteredAttendees = UserSet{}
	e.SelectedMembers = nil
	e.IsAutoRegistration = false
	e.syncRegisteredCount()
}

// SetEligibleAttendees replaces the mandatory and optional lists of a private
// event and reconciles the registration buckets against them: registrants who
// lost eligibility are dropped and, with auto-registration on, every
// mandatory user without a self-registration is auto-registered. It returns
// the users who were not auto-registered before.
func (e *Event) SetEligibleAttendees(mandatory, optional UserSet) UserSet {
	before := e.AutoRegisteredAttendees.Clone()

	e.MandatoryAttendees = mandatory.Clone()
	e.OptionalAttendees = optional.Clone()
	eligible := mandatory.Union(optional)

	e.RegisteredAttendees = e.RegisteredAttendees.Intersect(eligible)
	if e.IsAutoRegistration {
		e.AutoRegisteredAttendees = mandatory.Minus(e.RegisteredAttendees)
	} else {
		e.AutoRegisteredAttendees = e.AutoRegisteredAttendees.Intersect(eligible).Minus(e.RegisteredAttendees)
	}
	e.syncRegisteredCount()

	return e.AutoRegisteredAttendees.Minus(before)
}
