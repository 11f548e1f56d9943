package scores

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// FailedAttempts is the value recorded for an X/6 result: one worse than
// the maximum solve, so a failed puzzle always ranks below a six-guess win.
const FailedAttempts = 8

// DateLayout is the only accepted date format at the command boundary.
const DateLayout = "2006-01-02"

var (
	ErrNoScoreFound = errors.New("no valid score found")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
)

// InvalidScoreError reports a score token whose value is outside 1-6/X.
type InvalidScoreError struct {
	Token string
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid score %s - must be 1-6 or X", e.Token)
}

// The two marker phrases that identify an automated daily report. Both
// must appear before a message is treated as a report at all.
const (
	streakMarker  = "day streak"
	resultsMarker = "Here are yesterday's results:"
)

var (
	reportScoreRe  = regexp.MustCompile(`(?i)(\d|X)/6:`)
	mentionRe      = regexp.MustCompile(`<@!?(\d+)>`)
	manualScoreRe  = regexp.MustCompile(`(?i)^(\d|X)/6:?$`)
	mentionTokenRe = regexp.MustCompile(`^<@!?(\d+)>$`)
	bareScoreRe    = regexp.MustCompile(`(?i)^(\d|X)$`)
)

// ParsedScore is one extracted (user, attempts) pair, before username
// resolution and before a date is attached.
type ParsedScore struct {
	UserID   snowflake.ID
	Attempts int
}

// IsReport reports whether a message body carries both report markers.
// This is the trigger for automatic ingestion; everything else is
// ordinary chat.
func IsReport(content string) bool {
	return strings.Contains(content, streakMarker) && strings.Contains(content, resultsMarker)
}

// ParseReport extracts scores from a multi-line daily report. A line is
// relevant iff it contains "/6:"; its first score token applies to every
// mention on the same line. Lines with an unusable score value or no
// mentions contribute nothing.
func ParseReport(content string) []ParsedScore {
	var parsed []ParsedScore

	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "/6:") {
			continue
		}

		match := reportScoreRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		attempts, err := scoreValue(match[1])
		if err != nil {
			continue
		}

		for _, mention := range mentionRe.FindAllStringSubmatch(line, -1) {
			id, err := snowflake.Parse(mention[1])
			if err != nil {
				continue
			}
			parsed = append(parsed, ParsedScore{UserID: id, Attempts: attempts})
		}
	}

	return parsed
}

// ManualResult is the outcome of parsing an admin score argument string.
// Events and Errors can both be populated: one bad token never discards
// the rest of the batch.
type ManualResult struct {
	Events []ParsedScore
	Errors []error
}

// ParseManual parses the argument string of a manual score command.
//
// If the string contains any score-with-colon token ("3/6:"), tokens are
// scanned left to right: each score token sets the context applied to
// every mention until the next score token. Otherwise a simpler
// single-score form applies: one score anywhere in the string, all
// mentions as targets, defaulting to the invoker when there are none.
//
// The returned error is non-nil only when nothing was extracted at all.
func ParseManual(args string, invoker snowflake.ID) (ManualResult, error) {
	tokens := strings.Fields(args)

	paired := false
	for _, tok := range tokens {
		if manualScoreRe.MatchString(tok) && strings.HasSuffix(tok, ":") {
			paired = true
			break
		}
	}

	var res ManualResult
	if paired {
		res = parsePaired(tokens)
	} else {
		res = parseSingle(tokens, invoker)
	}

	if len(res.Events) == 0 {
		if len(res.Errors) > 0 {
			return res, res.Errors[0]
		}
		return res, ErrNoScoreFound
	}
	return res, nil
}

func parsePaired(tokens []string) ManualResult {
	var res ManualResult

	current := 0 // no score context yet
	for _, tok := range tokens {
		if m := manualScoreRe.FindStringSubmatch(tok); m != nil {
			attempts, err := scoreValue(m[1])
			if err != nil {
				res.Errors = append(res.Errors, err)
				current = 0
				continue
			}
			current = attempts
			continue
		}

		if m := mentionTokenRe.FindStringSubmatch(tok); m != nil && current != 0 {
			id, err := snowflake.Parse(m[1])
			if err != nil {
				continue
			}
			res.Events = append(res.Events, ParsedScore{UserID: id, Attempts: current})
		}
	}

	return res
}

func parseSingle(tokens []string, invoker snowflake.ID) ManualResult {
	var res ManualResult

	attempts := 0
	for _, tok := range tokens {
		var m []string
		if m = manualScoreRe.FindStringSubmatch(tok); m == nil {
			m = bareScoreRe.FindStringSubmatch(tok)
		}
		if m == nil {
			continue
		}
		value, err := scoreValue(m[1])
		if err != nil {
			res.Errors = append(res.Errors, err)
			return res
		}
		attempts = value
		break
	}
	if attempts == 0 {
		return res
	}

	var targets []snowflake.ID
	for _, tok := range tokens {
		if m := mentionTokenRe.FindStringSubmatch(tok); m != nil {
			if id, err := snowflake.Parse(m[1]); err == nil {
				targets = append(targets, id)
			}
		}
	}
	if len(targets) == 0 {
		targets = []snowflake.ID{invoker}
	}

	for _, id := range targets {
		res.Events = append(res.Events, ParsedScore{UserID: id, Attempts: attempts})
	}
	return res
}

// scoreValue maps a score token to its stored value: digits 1-6 to
// themselves, X to the failure sentinel. Anything else is rejected.
func scoreValue(token string) (int, error) {
	if strings.EqualFold(token, "x") {
		return FailedAttempts, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > 6 {
		return 0, &InvalidScoreError{Token: token}
	}
	return n, nil
}

// ValidateDate accepts exactly zero-padded YYYY-MM-DD calendar dates.
// The round-trip format check rejects unpadded digits and any separator
// slack that time.Parse would otherwise tolerate.
func ValidateDate(date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil || t.Format(DateLayout) != date {
		return ErrInvalidDate
	}
	return nil
}
