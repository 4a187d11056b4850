package intent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BuildPrompt renders the classification request sent to the model.
// now is shown in loc as the reference time.
func BuildPrompt(now time.Time, loc *time.Location, text string, mc *MergeContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert Google Calendar assistant. Classify the intent of the user's message and extract its details.\n")
	fmt.Fprintf(&b, "The current reference date and time is %s (%s). The time zone is %s.\n\n",
		now.In(loc).Format("2006-01-02T15:04:05"), now.In(loc).Format("Monday"), loc.String())

	b.WriteString("### INTENT RULES (\"intent\"): one of \"create\", \"edit\", \"delete\", \"query\", \"other\".\n")
	b.WriteString("### EXTRACTION RULES (\"details\"):\n")
	b.WriteString("- For \"create\" or \"edit\": an object with the event details (title, startTime, endTime, location, description, recurrenceRule).\n")
	b.WriteString("- For \"query\": an object with \"timeMin\" and \"timeMax\".\n")
	b.WriteString("- For \"delete\" or \"other\": \"details\" is an empty object {}.\n")
	b.WriteString("- All values are strings. Times use the format YYYY-MM-DDTHH:MM:SS in the time zone above, without offset.\n")
	b.WriteString("- All-day events use plain dates (YYYY-MM-DD) for startTime and endTime; endTime is the day after the last day.\n")
	b.WriteString("- recurrenceRule, if any, is an RFC 5545 RRULE such as FREQ=WEEKLY;BYDAY=MO.\n")
	b.WriteString("- Omit fields the user did not mention.\n\n")

	if mc != nil && mc.Intent == IntentEdit {
		original, _ := json.Marshal(mc.Original)
		b.WriteString("CONTEXT: The user wants to edit this existing event in their calendar:\n")
		b.Write(original)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "USER INSTRUCTION FOR THE EDIT: %q\n\n", text)
		b.WriteString("Merge the user's instruction into the event above and return the COMPLETE, UPDATED event in \"details\".\n")
		b.WriteString("Fields the instruction does not mention keep their original values; only overwrite fields the instruction clearly changes.\n")
		b.WriteString("For example, \"at 4pm\" keeps the original title and date and only changes the time. ")
		b.WriteString("\"no, the title is 'Final Meeting'\" keeps the date and time and only changes the title.\n")
	} else {
		fmt.Fprintf(&b, "User message: %q\n", text)
	}

	b.WriteString("\nRespond only with a JSON object with the keys \"intent\" and \"details\".")
	return b.String()
}
