package textmatch

import "testing"

func TestContainsFold(t *testing.T) {
	cases := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{name: "exact", haystack: "Ibuprofen", needle: "ibuprofen", want: true},
		{name: "substring", haystack: "Amoxicillin (penicillin class)", needle: "PENICILLIN", want: true},
		{name: "trimmed needle", haystack: "Warfarin", needle: "  warf ", want: true},
		{name: "no match", haystack: "Lisinopril", needle: "aspirin", want: false},
		{name: "empty needle", haystack: "Aspirin", needle: "   ", want: false},
		{name: "unicode fold", haystack: "ÉCOLE", needle: "école", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsFold(tc.haystack, tc.needle); got != tc.want {
				t.Fatalf("ContainsFold(%q, %q) = %v, want %v", tc.haystack, tc.needle, got, tc.want)
			}
		})
	}
}

func TestAnyContainsFold(t *testing.T) {
	if !AnyContainsFold("paracetamol", "Acetaminophen", "Paracetamol") {
		t.Fatal("expected generic name to match")
	}
	if AnyContainsFold("aspirin") {
		t.Fatal("no haystacks should never match")
	}
}
