package scores

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestExclusionSetMarkAndLookup(t *testing.T) {
	set := NewExclusionSet(8, time.Minute)

	if set.Excluded(snowflake.ID(1)) {
		t.Error("unmarked message reported as excluded")
	}

	set.Mark(snowflake.ID(1))
	if !set.Excluded(snowflake.ID(1)) {
		t.Error("marked message not reported as excluded")
	}
	if set.Excluded(snowflake.ID(2)) {
		t.Error("unrelated message reported as excluded")
	}
}

func TestExclusionSetExpiry(t *testing.T) {
	set := NewExclusionSet(8, -time.Second)

	set.Mark(snowflake.ID(1))
	if set.Excluded(snowflake.ID(1)) {
		t.Error("expired entry still reported as excluded")
	}
}

func TestExclusionSetBound(t *testing.T) {
	set := NewExclusionSet(2, time.Minute)

	set.Mark(snowflake.ID(1))
	set.Mark(snowflake.ID(2))
	set.Mark(snowflake.ID(3))

	if set.Excluded(snowflake.ID(1)) {
		t.Error("oldest entry survived past the size bound")
	}
	if !set.Excluded(snowflake.ID(3)) {
		t.Error("newest entry missing")
	}
}
