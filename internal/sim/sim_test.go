package sim

import (
	"context"
	"reflect"
	"testing"

	"github.com/idmod/outbreak/internal/params"
	"github.com/idmod/outbreak/internal/person"
)

func testPars(t *testing.T) *params.Parameters {
	t.Helper()
	p := params.Default()
	p.N = 300
	p.NInfected = 10
	p.NDays = 30
	p.Seed = 7
	p.R0 = 5
	return p
}

func mustRun(t *testing.T, p *params.Parameters, opts ...Option) *Sim {
	t.Helper()
	s, err := New(p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return s
}

func mustSeries(t *testing.T, r *Results, key string) []float64 {
	t.Helper()
	s, err := r.Series(key)
	if err != nil {
		t.Fatalf("Series(%q): %v", key, err)
	}
	return s
}

func TestNew_RejectsInvalidParameters(t *testing.T) {
	p := testPars(t)
	p.N = 0
	if _, err := New(p); err == nil {
		t.Fatal("expected an error for n = 0")
	}
}

func TestNew_ClonesParameters(t *testing.T) {
	p := testPars(t)
	s, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Contacts = 999
	if s.Pars().Contacts == 999 {
		t.Error("simulation shares the caller's parameter struct")
	}
}

func TestRun_SameSeedIdenticalResults(t *testing.T) {
	a := mustRun(t, testPars(t))
	b := mustRun(t, testPars(t))

	for _, key := range ResultKeys {
		if !reflect.DeepEqual(mustSeries(t, a.Results(), key), mustSeries(t, b.Results(), key)) {
			t.Errorf("series %q differs between identical seeds", key)
		}
	}

	treeA, _ := a.Results().TransmissionTree()
	treeB, _ := b.Results().TransmissionTree()
	if len(treeA) != len(treeB) {
		t.Errorf("transmission trees differ in size: %d vs %d", len(treeA), len(treeB))
	}
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	pa := testPars(t)
	pb := testPars(t)
	pb.Seed = 8

	a := mustRun(t, pa)
	b := mustRun(t, pb)
	if reflect.DeepEqual(mustSeries(t, a.Results(), KeyCumExposed), mustSeries(t, b.Results(), KeyCumExposed)) {
		t.Error("different seeds produced identical epidemics")
	}
}

func TestRun_DailyConservation(t *testing.T) {
	p := testPars(t)
	p.CFR = 0.2
	p.TimeToDie = 5
	s := mustRun(t, p)
	r := s.Results()

	sus := mustSeries(t, r, KeySusceptible)
	exp := mustSeries(t, r, KeyExposed)
	inf := mustSeries(t, r, KeyInfectious)
	rec := mustSeries(t, r, KeyRecovered)
	dead := mustSeries(t, r, KeyCumDeaths)

	for _, day := range r.Days() {
		total := sus[day] + exp[day] + inf[day] + rec[day] + dead[day]
		if total != float64(p.N) {
			t.Errorf("day %d: states sum to %v, want %d", day, total, p.N)
		}
	}
}

func TestRun_CumulativesAreRunningSums(t *testing.T) {
	p := testPars(t)
	p.DailyTests = []int{5, 5, 5, 5, 5}
	p.CFR = 0.2
	p.TimeToDie = 5
	r := mustRun(t, p).Results()

	for cum, daily := range cumSources {
		cs := mustSeries(t, r, cum)
		ds := mustSeries(t, r, daily)
		sum := 0.0
		for _, day := range r.Days() {
			sum += ds[day]
			if cs[day] != sum {
				t.Errorf("%s[%d] = %v, want running sum %v of %s", cum, day, cs[day], sum, daily)
			}
			if day > 0 && cs[day] < cs[day-1] {
				t.Errorf("%s decreased at day %d", cum, day)
			}
		}
	}
}

func TestRun_NoTransmissionWithZeroR0(t *testing.T) {
	p := testPars(t)
	p.R0 = 0
	r := mustRun(t, p).Results()

	cum := mustSeries(t, r, KeyCumExposed)
	if got := cum[len(cum)-1]; got != float64(p.NInfected) {
		t.Errorf("cum_exposed = %v, want just the %d seeds", got, p.NInfected)
	}
	tree, _ := r.TransmissionTree()
	if len(tree) != 0 {
		t.Errorf("transmission tree has %d entries, want none", len(tree))
	}
}

func TestRun_EpidemicSpreads(t *testing.T) {
	r := mustRun(t, testPars(t)).Results()
	cum := mustSeries(t, r, KeyCumExposed)
	if got := cum[len(cum)-1]; got <= 10 {
		t.Errorf("cum_exposed = %v, epidemic never spread beyond the seeds", got)
	}
}

func TestRun_FullFatalityMeansNoRecoveries(t *testing.T) {
	p := testPars(t)
	p.CFR = 1
	p.TimeToDie = 3
	p.TimeToDieStd = 0
	r := mustRun(t, p).Results()

	for day, v := range mustSeries(t, r, KeyRecoveries) {
		if v != 0 {
			t.Errorf("day %d: %v recoveries with cfr 1", day, v)
		}
	}
	deaths := mustSeries(t, r, KeyCumDeaths)
	if got := deaths[len(deaths)-1]; got < float64(p.NInfected) {
		t.Errorf("cum_deaths = %v, even the seeds should have died", got)
	}
}

func TestRun_ZeroFatalityMeansNoDeaths(t *testing.T) {
	p := testPars(t)
	p.CFR = 0
	r := mustRun(t, p).Results()
	deaths := mustSeries(t, r, KeyCumDeaths)
	if got := deaths[len(deaths)-1]; got != 0 {
		t.Errorf("cum_deaths = %v with cfr 0", got)
	}
}

func TestRun_ZeroSensitivityMeansNoDiagnoses(t *testing.T) {
	p := testPars(t)
	p.Sensitivity = 0
	p.DailyTests = []int{10, 10, 10, 10, 10}
	r := mustRun(t, p).Results()

	tests := mustSeries(t, r, KeyCumTested)
	if tests[len(tests)-1] == 0 {
		t.Fatal("no tests ran despite a budget and infectious seeds")
	}
	diag := mustSeries(t, r, KeyCumDiagnosed)
	if got := diag[len(diag)-1]; got != 0 {
		t.Errorf("cum_diagnosed = %v with sensitivity 0", got)
	}
}

func TestRun_RecoveredNeverShrinks(t *testing.T) {
	r := mustRun(t, testPars(t)).Results()
	rec := mustSeries(t, r, KeyRecovered)
	for day := 1; day < len(rec); day++ {
		if rec[day] < rec[day-1] {
			t.Errorf("n_recovered shrank from %v to %v at day %d", rec[day-1], rec[day], day)
		}
	}
}

func TestRun_ScaleMultipliesEverySeries(t *testing.T) {
	base := mustRun(t, testPars(t)).Results()

	scaled := testPars(t)
	scaled.Scale = 10
	big := mustRun(t, scaled).Results()

	for _, key := range ResultKeys {
		bs := mustSeries(t, base, key)
		ss := mustSeries(t, big, key)
		for day := range bs {
			if ss[day] != bs[day]*10 {
				t.Errorf("%s[%d] = %v, want %v", key, day, ss[day], bs[day]*10)
			}
		}
	}
}

func TestRun_TransmissionTreeIsConsistent(t *testing.T) {
	p := testPars(t)
	s := mustRun(t, p)
	tree, err := s.Results().TransmissionTree()
	if err != nil {
		t.Fatalf("TransmissionTree: %v", err)
	}
	if len(tree) == 0 {
		t.Fatal("no transmission events recorded")
	}

	for i := 0; i < p.NInfected; i++ {
		if _, ok := tree[s.people.At(i).ID]; ok {
			t.Errorf("seed %d has a transmission-tree entry", i)
		}
	}
	for target, inf := range tree {
		if inf.Day < 0 || inf.Day > p.NDays {
			t.Errorf("infection of %v on day %d, outside the horizon", target, inf.Day)
		}
		tp, ok := s.people.ByID(target)
		if !ok {
			t.Fatalf("tree target %v is not in the population", target)
		}
		if tp.DayExposed != inf.Day {
			t.Errorf("tree says %v infected on day %d, person says %d", target, inf.Day, tp.DayExposed)
		}
		if _, ok := s.people.ByID(inf.Source); !ok {
			t.Errorf("tree source %v is not in the population", inf.Source)
		}
	}
}

func TestRun_PerPersonDayOrdering(t *testing.T) {
	p := testPars(t)
	p.CFR = 0.3
	p.TimeToDie = 8
	p.DailyTests = []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	s := mustRun(t, p)

	for i := 0; i < s.people.Len(); i++ {
		pe := s.people.At(i)
		if pe.DayExposed == person.DayUnset {
			continue
		}
		seed := i < p.NInfected
		if !seed && pe.DayInfectious <= pe.DayExposed {
			t.Errorf("person %d infectious on day %d, exposed on %d", i, pe.DayInfectious, pe.DayExposed)
		}
		if pe.State == person.Recovered && pe.DayRecovered < pe.DayInfectious {
			t.Errorf("person %d recovered before turning infectious", i)
		}
		if pe.State == person.Dead && pe.DayDied < pe.DayExposed {
			t.Errorf("person %d died before exposure", i)
		}
		if pe.Diagnosed && pe.DayDiagnosed < pe.DayInfectious {
			t.Errorf("person %d diagnosed before turning infectious", i)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(testPars(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Run(ctx); err == nil {
		t.Fatal("expected a cancellation error")
	}
	if s.Results().Ready() {
		t.Error("aborted run exposed a ready results table")
	}
}

func TestApplyInterventions(t *testing.T) {
	p := testPars(t)
	p.Contacts = 20
	p.Intervene = 2
	p.Unintervene = 5
	p.InterventionEff = 0.5

	s, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.applyInterventions(1)
	if s.pars.Contacts != 20 {
		t.Fatalf("contacts changed before the intervention day: %v", s.pars.Contacts)
	}
	s.applyInterventions(2)
	if s.pars.Contacts != 10 {
		t.Fatalf("contacts = %v after intervening, want 10", s.pars.Contacts)
	}
	s.applyInterventions(5)
	if diff := s.pars.Contacts - 20; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("contacts = %v after lifting, want 20", s.pars.Contacts)
	}
}

func TestRun_InterventionWindowRestoresContacts(t *testing.T) {
	p := testPars(t)
	p.Contacts = 20
	p.Intervene = 10
	p.Unintervene = 20
	p.InterventionEff = 0.5

	s := mustRun(t, p)
	if diff := s.Pars().Contacts - 20; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("contacts = %v after the run, want the original 20 back", s.Pars().Contacts)
	}
}
