package scores

import (
	"errors"
	"reflect"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

const sampleReport = `Your group is on a 5 day streak! 🔥 Here are yesterday's results:
👑 4/6: <@111> <@222>
5/6: <@333>
X/6: <@444>`

func TestIsReport(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "full report",
			content: sampleReport,
			want:    true,
		},
		{
			name:    "streak marker only",
			content: "Your group is on a 3 day streak!",
			want:    false,
		},
		{
			name:    "results marker only",
			content: "Here are yesterday's results:",
			want:    false,
		},
		{
			name:    "ordinary chat",
			content: "good morning everyone",
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReport(tt.content); got != tt.want {
				t.Errorf("IsReport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []ParsedScore
	}{
		{
			name:    "multiple lines and shared scores",
			content: sampleReport,
			want: []ParsedScore{
				{UserID: snowflake.ID(111), Attempts: 4},
				{UserID: snowflake.ID(222), Attempts: 4},
				{UserID: snowflake.ID(333), Attempts: 5},
				{UserID: snowflake.ID(444), Attempts: 8},
			},
		},
		{
			name:    "nickname mention form",
			content: "3/6: <@!555>",
			want:    []ParsedScore{{UserID: snowflake.ID(555), Attempts: 3}},
		},
		{
			name:    "line without mentions contributes nothing",
			content: "4/6: nobody tagged here",
			want:    nil,
		},
		{
			name:    "invalid score value skips the line",
			content: "9/6: <@111>\n3/6: <@222>",
			want:    []ParsedScore{{UserID: snowflake.ID(222), Attempts: 3}},
		},
		{
			name:    "no score lines",
			content: "nothing to see",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseReport(tt.content); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseReport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseManual(t *testing.T) {
	invoker := snowflake.ID(9000)

	tests := []struct {
		name       string
		args       string
		wantEvents []ParsedScore
		wantErr    error
	}{
		{
			name: "paired scores and mentions",
			args: "3/6: <@1111> 4/6: <@2222>",
			wantEvents: []ParsedScore{
				{UserID: snowflake.ID(1111), Attempts: 3},
				{UserID: snowflake.ID(2222), Attempts: 4},
			},
		},
		{
			name: "one score shared by several mentions",
			args: "5/6: <@1111> <@2222>",
			wantEvents: []ParsedScore{
				{UserID: snowflake.ID(1111), Attempts: 5},
				{UserID: snowflake.ID(2222), Attempts: 5},
			},
		},
		{
			name:       "single score defaults to invoker",
			args:       "4/6",
			wantEvents: []ParsedScore{{UserID: invoker, Attempts: 4}},
		},
		{
			name:       "bare digit defaults to invoker",
			args:       "3",
			wantEvents: []ParsedScore{{UserID: invoker, Attempts: 3}},
		},
		{
			name:       "failed puzzle maps to sentinel",
			args:       "X/6",
			wantEvents: []ParsedScore{{UserID: invoker, Attempts: FailedAttempts}},
		},
		{
			name:       "lowercase x accepted",
			args:       "x/6",
			wantEvents: []ParsedScore{{UserID: invoker, Attempts: FailedAttempts}},
		},
		{
			name:       "single score with explicit mention",
			args:       "2/6 <@3333>",
			wantEvents: []ParsedScore{{UserID: snowflake.ID(3333), Attempts: 2}},
		},
		{
			name:    "out of range score",
			args:    "9/6",
			wantErr: &InvalidScoreError{Token: "9"},
		},
		{
			name:    "unparseable input",
			args:    "badscore",
			wantErr: ErrNoScoreFound,
		},
		{
			name:    "empty input",
			args:    "",
			wantErr: ErrNoScoreFound,
		},
		{
			name: "invalid paired token keeps the rest of the batch",
			args: "9/6: <@1111> 3/6: <@2222>",
			wantEvents: []ParsedScore{
				{UserID: snowflake.ID(2222), Attempts: 3},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManual(tt.args, invoker)
			if tt.wantErr != nil {
				var invalid *InvalidScoreError
				if errors.As(tt.wantErr, &invalid) {
					var gotInvalid *InvalidScoreError
					if !errors.As(err, &gotInvalid) || gotInvalid.Token != invalid.Token {
						t.Fatalf("ParseManual() error = %v, want %v", err, tt.wantErr)
					}
				} else if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseManual() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseManual() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(got.Events, tt.wantEvents) {
				t.Errorf("ParseManual() events = %v, want %v", got.Events, tt.wantEvents)
			}
		})
	}
}

func TestParseManualCollectsErrorsAlongsideEvents(t *testing.T) {
	got, err := ParseManual("9/6: <@1111> 3/6: <@2222>", snowflake.ID(1))
	if err != nil {
		t.Fatalf("ParseManual() unexpected error = %v", err)
	}
	if len(got.Events) != 1 {
		t.Fatalf("ParseManual() events = %v, want 1 event", got.Events)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("ParseManual() errors = %v, want 1 error", got.Errors)
	}
	var invalid *InvalidScoreError
	if !errors.As(got.Errors[0], &invalid) || invalid.Token != "9" {
		t.Errorf("ParseManual() error = %v, want invalid score 9", got.Errors[0])
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{"2024-06-01", false},
		{"2024-12-31", false},
		{"2024-13-01", true},
		{"2024-06-32", true},
		{"2024/06/01", true},
		{"06-01-2024", true},
		{"2024-6-1", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := ValidateDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}
