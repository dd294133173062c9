package env

import (
	"reflect"
	"testing"
)

func TestToPairsSorted(t *testing.T) {
	evm := EnvironmentVariableMap{
		"B_VAR": "2",
		"A_VAR": "1",
		"Z_VAR": "3",
	}
	want := EnvironmentVariablePairs{"A_VAR=1", "B_VAR=2", "Z_VAR=3"}
	if got := evm.ToPairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ToPairs() = %v, want %v", got, want)
	}
}

func TestFromPairsRoundTrip(t *testing.T) {
	evm := EnvironmentVariableMap{
		"NODE_ENV": "production",
		"EMPTY":    "",
		"WITH_EQ":  "a=b",
	}
	if got := FromPairs(evm.ToPairs()); !reflect.DeepEqual(got, evm) {
		t.Errorf("FromPairs(ToPairs()) = %v, want %v", got, evm)
	}
}

func TestUnionOverwrites(t *testing.T) {
	evm := EnvironmentVariableMap{"A": "1", "B": "2"}
	evm.Union(EnvironmentVariableMap{"B": "3", "C": "4"})
	want := EnvironmentVariableMap{"A": "1", "B": "3", "C": "4"}
	if !reflect.DeepEqual(evm, want) {
		t.Errorf("Union() = %v, want %v", evm, want)
	}
}

func TestDifference(t *testing.T) {
	evm := EnvironmentVariableMap{"A": "1", "B": "2"}
	evm.Difference(EnvironmentVariableMap{"B": "anything"})
	want := EnvironmentVariableMap{"A": "1"}
	if !reflect.DeepEqual(evm, want) {
		t.Errorf("Difference() = %v, want %v", evm, want)
	}
}

func TestHashIsOrderIndependent(t *testing.T) {
	a := EnvironmentVariableMap{"A": "1", "B": "2", "C": "3"}
	b := EnvironmentVariableMap{"C": "3", "A": "1", "B": "2"}
	if a.Hash() != b.Hash() {
		t.Errorf("hashes differ for equal maps: %v vs %v", a.Hash(), b.Hash())
	}
	b["A"] = "changed"
	if a.Hash() == b.Hash() {
		t.Error("hashes equal for different maps")
	}
}

func TestNames(t *testing.T) {
	evm := EnvironmentVariableMap{"B": "", "A": "", "C": ""}
	if got := evm.Names(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Names() = %v", got)
	}
}
