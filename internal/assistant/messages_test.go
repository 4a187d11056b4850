package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/agendabot/internal/calendar"
)

func TestCreatedAndEdited(t *testing.T) {
	assert.Equal(t, `✅ Event "Standup" scheduled!`, Created("Standup"))
	assert.Equal(t, `✅ Event "(untitled)" scheduled!`, Created("  "))
	assert.Equal(t, `✅ Done! I updated your last event to: "Final Meeting".`, Edited("Final Meeting"))
}

func TestAgenda(t *testing.T) {
	events := []calendar.Event{
		{Title: "Holiday", Start: time.Date(2024, 1, 10, 0, 0, 0, 0, santiago), AllDay: true},
		{Title: "", Start: time.Date(2024, 1, 10, 12, 0, 0, 0, santiago)},
	}

	got := Agenda(events, santiago)

	assert.Equal(t, "Here's what you have scheduled:\n"+
		"\n• Holiday (Wed 10 Jan, all day)"+
		"\n• (untitled) (Wed 10 Jan at 12:00)", got)
}
