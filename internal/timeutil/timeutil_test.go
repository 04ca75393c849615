package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/sigman78/cdxt/internal/cdxerr"
)

func TestPadLow(t *testing.T) {
	got := PadLow("2018")
	want := "20180101000000"
	if got != want {
		t.Errorf("PadLow(2018) = %q, want %q", got, want)
	}
}

func TestPadHighClampsFebruary(t *testing.T) {
	got := PadHigh("201802")
	want := "20180228235959"
	if got != want {
		t.Errorf("PadHigh(201802) = %q, want %q", got, want)
	}
}

func TestPadHighClamps30DayMonth(t *testing.T) {
	got := PadHigh("201804")
	if got[6:8] != "30" {
		t.Errorf("PadHigh(201804) day = %q, want 30", got[6:8])
	}
}

func TestRoundTripPadLow(t *testing.T) {
	ts := "2018010112"
	epoch, err := ToEpoch(ts)
	if err != nil {
		t.Fatalf("ToEpoch: %v", err)
	}
	again, err := ToEpoch(FromEpoch(epoch))
	if err != nil {
		t.Fatalf("ToEpoch(FromEpoch): %v", err)
	}
	if !epoch.Equal(again) {
		t.Errorf("round trip mismatch: %v != %v", epoch, again)
	}
}

func TestFromEpochPadLowEquivalence(t *testing.T) {
	t0, err := ToEpoch("20180101")
	if err != nil {
		t.Fatalf("ToEpoch: %v", err)
	}
	if got, want := FromEpoch(t0), PadLow("20180101"); got != want {
		t.Errorf("FromEpoch(ToEpoch(ts)) = %q, want %q", got, want)
	}
}

func TestToEpochInvalidDate(t *testing.T) {
	_, err := ToEpoch("20189999999999")
	if !errors.Is(err, cdxerr.BadTimestamp) {
		t.Errorf("expected BadTimestamp, got %v", err)
	}
}

func TestToEpochLooksLikeUnixTime(t *testing.T) {
	_, err := ToEpoch("1524962339")
	if !errors.Is(err, cdxerr.InvalidTimestamp) {
		t.Errorf("expected InvalidTimestamp hint, got %v", err)
	}
}

func TestCCIndexNameToEpochISOWeek(t *testing.T) {
	ts, err := CCIndexNameToEpoch("2018-13")
	if err != nil {
		t.Fatalf("CCIndexNameToEpoch: %v", err)
	}
	if len(ts) != 14 {
		t.Errorf("expected 14-digit timestamp, got %q", ts)
	}
	if ts[:4] != "2018" {
		t.Errorf("expected year 2018, got %q", ts[:4])
	}
}

func TestCCIndexNameToEpochPseudoIndex(t *testing.T) {
	ts, err := CCIndexNameToEpoch("2012")
	if err != nil {
		t.Fatalf("CCIndexNameToEpoch: %v", err)
	}
	if ts != "20130101000000" {
		t.Errorf("CCIndexNameToEpoch(2012) = %q, want 20130101000000", ts)
	}
}

func TestCCIndexNameToEpochUnknown(t *testing.T) {
	if _, err := CCIndexNameToEpoch("not-a-crawl"); err == nil {
		t.Error("expected error for unrecognized index name")
	}
}

func TestIsoWeekSundayIsActuallySunday(t *testing.T) {
	ts := isoWeekSundayTimestamp(2018, 13)
	epoch, err := ToEpoch(ts)
	if err != nil {
		t.Fatalf("ToEpoch: %v", err)
	}
	if epoch.Weekday() != time.Sunday {
		t.Errorf("expected Sunday, got %v", epoch.Weekday())
	}
}
