package constants

import "testing"

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{0, TierLow},
		{10, TierLow},
		{19, TierLow},
		{20, TierMedium}, // boundary belongs to the higher tier
		{25, TierMedium},
		{49, TierMedium},
		{50, TierHigh}, // boundary belongs to the higher tier
		{75, TierHigh},
		{130, TierHigh},
	}
	for _, tc := range cases {
		if got := TierForScore(tc.score); got != tc.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestMapExtToFormat(t *testing.T) {
	cases := map[string]FileFormat{
		".pdf":  PDF,
		"PDF":   PDF,
		".png":  PNG,
		".jpg":  JPEG,
		"jpeg":  JPEG,
		".txt":  "",
		".heic": "",
		"":      "",
	}
	for ext, want := range cases {
		if got := MapExtToFormat(ext); got != want {
			t.Errorf("MapExtToFormat(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestCategoryOrderStable(t *testing.T) {
	if Categories[0] != RoadTransport {
		t.Fatalf("first category must be %s, got %s", RoadTransport, Categories[0])
	}
	if Categories[len(Categories)-1] != Other {
		t.Fatalf("last category must be %s, got %s", Other, Categories[len(Categories)-1])
	}
	if len(CategoryKeywords[Other]) != 0 {
		t.Fatalf("Other must carry no keywords")
	}
}
