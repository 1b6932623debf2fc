package ranking

import "testing"

func TestParseCompletionTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"hours minutes seconds millis", "1:02:03.450", 3723450},
		{"minutes seconds with short fraction", "2:30.5", 150500},
		{"seconds only", "45.2", 45200},
		{"minutes seconds no fraction", "20:15", 1215000},
		{"zero", "0", 0},
		{"plain seconds", "59", 59000},
		{"fraction truncated to millis", "1.23456", 1234},
		{"fraction padded to millis", "1.4", 1400},
		{"unnormalized minutes", "90:00", 5400000},
		{"leading whitespace", " 10:00 ", 600000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCompletionTime(tt.input); got != tt.want {
				t.Errorf("ParseCompletionTime(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCompletionTimeLenient(t *testing.T) {
	// Malformed values never panic or error; they degrade to zero so one
	// bad entry cannot block recalculating a whole category.
	tests := []struct {
		name  string
		input string
	}{
		{"letters", "ab:cd"},
		{"empty", ""},
		{"too many segments", "1:2:3:4"},
		{"negative segment", "-1:30"},
		{"bad fraction", "12.x9"},
		{"double dot", "12.3.4"},
		{"trailing dot", "45."},
		{"trailing dot after minutes", "1:30."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCompletionTime(tt.input); got != 0 {
				t.Errorf("ParseCompletionTime(%q) = %d, want 0", tt.input, got)
			}
		})
	}
}
