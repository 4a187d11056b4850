package assistant

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/agendabot/internal/calendar"
)

const untitled = "(untitled)"

// Fixed replies.
const (
	MsgCreateFailed         = "❌ There was an error creating your event."
	MsgMissingStart         = "🤔 I need a start time to schedule that. When should it start?"
	MsgNothingToEdit        = "🤔 I couldn't find a recent event to edit. Try creating one first."
	MsgEditLookupFailed     = "❌ I couldn't find the details of your last event."
	MsgEditFailed           = "❌ I couldn't modify your last event."
	MsgNothingToCancel      = "🤔 I couldn't find a recent event to cancel. Try creating one first."
	MsgDeleted              = "✅ Done! I cancelled your last event."
	MsgDeleteFailed         = "❌ I couldn't cancel your last event."
	MsgEventGone            = "🤔 Your last event no longer exists. It may have been cancelled already."
	MsgMissingWindow        = "🤔 I didn't understand which time range you want to check."
	MsgNoEvents             = "✅ Good news! You have no events scheduled for that period."
	MsgQueryFailed          = "❌ Sorry, I couldn't check your calendar right now."
	MsgNotSure              = "🤔 I'm not sure how to help with that."
	MsgGenericFailure       = "❌ There was a problem processing your request."
	MsgAuthenticated        = "Authentication successful! ✨ You can now send me events."
	MsgAlreadyAuthenticated = "All set! You were already authenticated. ✨"
)

// AuthURL returns the link that starts the authorization handoff for from.
func AuthURL(baseURL, from string) string {
	return strings.TrimSuffix(baseURL, "/") + "/auth?whatsappNumber=" + url.QueryEscape(from)
}

// AuthPrompt asks an unknown sender to connect their calendar.
func AuthPrompt(link string) string {
	return "👋 Hi! To use the assistant I need permission to access your calendar. Please open this link:\n\n" + link
}

// Created confirms a new event.
func Created(title string) string {
	return fmt.Sprintf("✅ Event \"%s\" scheduled!", titleOrDefault(title))
}

// Edited confirms an update of the last event.
func Edited(title string) string {
	return fmt.Sprintf("✅ Done! I updated your last event to: \"%s\".", titleOrDefault(title))
}

// Agenda lists events with their start in loc.
func Agenda(events []calendar.Event, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("Here's what you have scheduled:\n")
	for _, ev := range events {
		b.WriteString("\n• ")
		b.WriteString(titleOrDefault(ev.Title))
		if ev.AllDay {
			fmt.Fprintf(&b, " (%s, all day)", ev.Start.Format("Mon 02 Jan"))
			continue
		}
		fmt.Fprintf(&b, " (%s at %s)", ev.Start.In(loc).Format("Mon 02 Jan"), ev.Start.In(loc).Format("15:04"))
	}
	return b.String()
}

func titleOrDefault(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}
