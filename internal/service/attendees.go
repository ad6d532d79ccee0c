package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// ResolveAttendees expands the organizer's selection into final mandatory and
// optional attendee sets. Users picked directly keep the flag they were picked
// with even if a selected group also contains them; after that, a user who
// ends up in both pools is mandatory.
func ResolveAttendees(ctx context.Context, groups GroupExpander, selected []model.SelectedMember) (mandatory, optional model.UserSet, err error) {
	var groupMandatory, groupOptional, userMandatory, userOptional model.UserSet

	for _, m := range selected {
		if !m.IsGroup {
			if m.IsMandatory {
				userMandatory.Add(m.ID)
			} else {
				userOptional.Add(m.ID)
			}
			continue
		}
		members, err := groups.GroupMembers(ctx, m.ID)
		if err != nil {
			return model.UserSet{}, model.UserSet{}, fmt.Errorf("expand group %s: %w", m.ID, err)
		}
		for _, id := range members {
			if m.IsMandatory {
				groupMandatory.Add(id)
			} else {
				groupOptional.Add(id)
			}
		}
	}

	direct := userMandatory.Union(userOptional)
	groupMandatory = groupMandatory.Minus(direct)
	groupOptional = groupOptional.Minus(direct)

	mandatory = groupMandatory.Union(userMandatory)
	optional = groupOptional.Union(userOptional).Minus(mandatory)
	return mandatory, optional, nil
}

// applyAudience reconciles e's attendee lists with its audience and returns
// the users who became auto-registered. A private event re-resolves its
// member selection; an event switching from private to public loses every
// attendee list.
func (c *core) applyAudience(ctx context.Context, e *model.Event, previous model.Audience) (model.UserSet, error) {
	if e.Audience != model.AudiencePrivate {
		if previous == model.AudiencePrivate {
			e.ClearAttendees()
		}
		return model.UserSet{}, nil
	}

	mandatory, optional := e.MandatoryAttendees, e.OptionalAttendees
	if len(e.SelectedMembers) > 0 {
		var err error
		mandatory, optional, err = ResolveAttendees(ctx, c.Groups, e.SelectedMembers)
		if err != nil {
			return model.UserSet{}, err
		}
	}
	return e.SetEligibleAttendees(mandatory, optional), nil
}
