package ui

import "testing"

func TestAlertShowsOnce(t *testing.T) {
	var a Alert
	if a.Active() {
		t.Fatal("new alert is active")
	}
	a.Show("")
	if a.Active() {
		t.Fatal("empty message activated the alert")
	}
	a.Show("first")
	if !a.Active() || a.Message() != "first" {
		t.Fatalf("alert = %q active=%v", a.Message(), a.Active())
	}
	a.Show("second")
	if a.Message() != "first" {
		t.Fatalf("second message replaced the first: %q", a.Message())
	}
	a.Dismiss()
	if a.Active() {
		t.Fatal("dismissed alert still active")
	}
	a.Show("third")
	if a.Active() {
		t.Fatal("alert shown twice")
	}
}
