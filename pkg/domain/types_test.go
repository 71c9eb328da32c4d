package domain

import "testing"

func TestCanTransition(t *testing.T) {
	legal := map[[2]RequestStatus]bool{
		{StatusPending, StatusApproved}:    true,
		{StatusPending, StatusDeclined}:    true,
		{StatusApproved, StatusInTransit}:  true,
		{StatusInTransit, StatusCompleted}: true,
	}
	all := []RequestStatus{StatusPending, StatusApproved, StatusDeclined, StatusInTransit, StatusCompleted}
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]RequestStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []RequestStatus{StatusPending, StatusApproved, StatusDeclined, StatusInTransit, StatusCompleted}
	for _, to := range all {
		if CanTransition(StatusDeclined, to) {
			t.Errorf("declined must be terminal, allowed move to %s", to)
		}
		if CanTransition(StatusCompleted, to) {
			t.Errorf("completed must be terminal, allowed move to %s", to)
		}
	}
}

func TestValidUserType(t *testing.T) {
	for _, valid := range []UserType{TypeFarmer, TypeVendor, TypeLogistics} {
		if !ValidUserType(valid) {
			t.Errorf("ValidUserType(%s) = false", valid)
		}
	}
	for _, invalid := range []UserType{"", "admin", "Farmer"} {
		if ValidUserType(invalid) {
			t.Errorf("ValidUserType(%q) = true", invalid)
		}
	}
}

func TestRequestIsParticipant(t *testing.T) {
	r := Request{FarmerID: "f-1", VendorID: "v-1"}
	if !r.IsParticipant("f-1") || !r.IsParticipant("v-1") {
		t.Fatal("farmer and vendor must both be participants")
	}
	if r.IsParticipant("u-9") || r.IsParticipant("") {
		t.Fatal("outsiders must not be participants")
	}
}
