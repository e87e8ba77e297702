package ingest

import "testing"

func TestParseAbstractResponse_WellFormed(t *testing.T) {
	raw := `SUMMARY: Customer asked about the refund policy
HEADERS:
- refunds
- billing
`
	got := parseAbstractResponse(raw)
	if got.Summary != "Customer asked about the refund policy" {
		t.Fatalf("unexpected summary: %q", got.Summary)
	}
	if len(got.Headers) != 2 || got.Headers[0] != "refunds" || got.Headers[1] != "billing" {
		t.Fatalf("unexpected headers: %v", got.Headers)
	}
}

func TestParseAbstractResponse_CaseInsensitivePrefix(t *testing.T) {
	raw := "summary: lowercase label\nheaders:\n- x\n"
	got := parseAbstractResponse(raw)
	if got.Summary != "lowercase label" {
		t.Fatalf("expected case-insensitive SUMMARY match, got %q", got.Summary)
	}
	if len(got.Headers) != 1 || got.Headers[0] != "x" {
		t.Fatalf("expected case-insensitive HEADERS match, got %v", got.Headers)
	}
}

func TestParseAbstractResponse_MalformedYieldsEmpty(t *testing.T) {
	got := parseAbstractResponse("this is not in the expected grammar at all")
	if got.Summary != "" || len(got.Headers) != 0 {
		t.Fatalf("expected zero-value result for unparseable input, got %+v", got)
	}
}

func TestParseAbstractResponse_BulletsRequireLeadingDash(t *testing.T) {
	raw := "SUMMARY: ok\nHEADERS:\nrefunds\n- billing\n"
	got := parseAbstractResponse(raw)
	if len(got.Headers) != 1 || got.Headers[0] != "billing" {
		t.Fatalf("expected only the dash-prefixed bullet to count, got %v", got.Headers)
	}
}
