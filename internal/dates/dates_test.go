package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"compact pm", "7:00pm", "7:00 PM"},
		{"spaced pm", "7:00 pm", "7:00 PM"},
		{"uppercase", "7:00 PM", "7:00 PM"},
		{"24 hour evening", "19:00", "7:00 PM"},
		{"24 hour morning", "09:15", "9:15 AM"},
		{"bare morning", "7:00", "7:00 AM"},
		{"whitespace", "  4:30PM ", "4:30 PM"},
		{"garbage passthrough", "garbage", "garbage"},
		{"empty passthrough", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTime(tt.raw))
		})
	}
}

func TestResolveDate(t *testing.T) {
	ref := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC) // a Saturday

	tests := []struct {
		name  string
		label string
		hint  string
		ref   time.Time
		want  string
	}{
		{"today", "Today", "ignored", ref, "2024-02-10"},
		{"tomorrow", "Tomorrow", "", ref, "2024-02-11"},
		{"hint month day", "Fri, Feb 16", "Feb 16", ref, "2024-02-16"},
		{"hint long month", "", "February 16", ref, "2024-02-16"},
		{
			"hint rolls to next year", "", "Jan 5",
			time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC), "2025-01-05",
		},
		{
			"hint previous month does not roll", "", "Jan 20",
			time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "2024-01-20",
		},
		{
			"weekday from monday", "Thu", "",
			time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), "2024-02-08",
		},
		{
			"same weekday goes to next week", "Thu", "",
			time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC), "2024-02-15",
		},
		{"full weekday name", "Sunday", "", ref, "2024-02-11"},
		{"unknown label falls back to ref", "Matinee", "", ref, "2024-02-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDate(tt.label, tt.hint, tt.ref))
		})
	}
}
