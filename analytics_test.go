package main

import "testing"

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)

	a.Track(EvtJoin, 0, 1, "")
	a.Track(EvtJoin, 0, 2, "")
	a.Track(EvtWaveStart, 0, 0, `{"wave":2}`)
	a.Stop()
	a.Stop()

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtJoin] != 2 || counts[EvtWaveStart] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestAnalyticsNil(t *testing.T) {
	var a *Analytics
	a.Track(EvtLeave, 0, 1, "")
	a.Stop()
	counts, err := a.EventCounts(7)
	if err != nil || len(counts) != 0 {
		t.Errorf("expected empty counts from nil analytics, got %v (err %v)", counts, err)
	}
}

func TestGameTracksEvents(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	g := NewGame(newTestRNG(), db, a)

	id := g.Connect(&mockBroadcaster{})
	g.Join(id, "Ann", 0)
	g.Disconnect(id)
	a.Stop()

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtJoin] != 1 || counts[EvtLeave] != 1 {
		t.Errorf("expected one join and one leave, got %v", counts)
	}
}
