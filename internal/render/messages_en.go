package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "event.team_card.subject", "Training: %s")
	message.SetString(lang, "event.team_card.body", "%s\n%s\nWhen: %s\nWhere: %s\nSeats: %d of %d taken\n%s")
	message.SetString(lang, "event.team_card.closed", "Registrations are closed.")
	message.SetString(lang, "event.team_card.open", "Register: %s")
	message.SetString(lang, "event.auto_registered.subject", "You have been registered for %s")
	message.SetString(lang, "event.auto_registered.body", "You are a mandatory attendee of %s and have been registered automatically.\nWhen: %s\nWhere: %s")
	message.SetString(lang, "event.updated.subject", "Updated: %s")
	message.SetString(lang, "event.updated.body", "The details of %s have changed.\nWhen: %s\nWhere: %s")
	message.SetString(lang, "event.cancelled.subject", "Cancelled: %s")
	message.SetString(lang, "event.cancelled.body", "%s scheduled for %s has been cancelled.")
	message.SetString(lang, "event.reminder.subject", "Reminder: %s")
	message.SetString(lang, "event.reminder.body", "%s starts %s.\nWhere: %s")
	message.SetString(lang, "event.venue.online", "Online")
}
