package chem

import "strings"

// symbolToNumber covers the elements that occur in drug-like organic
// molecules plus the halogens and common hetero atoms. Molecule file
// readers reject anything outside this table; whether an element is
// supported by the models is a separate, narrower check owned by the
// calculator.
var symbolToNumber = map[string]int{
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8,
	"F": 9, "Ne": 10, "Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15,
	"S": 16, "Cl": 17, "Ar": 18, "K": 19, "Ca": 20, "Fe": 26, "Co": 27,
	"Ni": 28, "Cu": 29, "Zn": 30, "As": 33, "Se": 34, "Br": 35, "I": 53,
}

var numberToSymbol = func() map[int]string {
	m := make(map[int]string, len(symbolToNumber))
	for s, z := range symbolToNumber {
		m[z] = s
	}
	return m
}()

// AtomicNumber resolves an element symbol (case-normalized) to its atomic
// number.
func AtomicNumber(symbol string) (int, bool) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return 0, false
	}
	s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	z, ok := symbolToNumber[s]
	return z, ok
}

// Symbol returns the element symbol for an atomic number, or an empty
// string for numbers outside the table.
func Symbol(z int) string {
	return numberToSymbol[z]
}

// defaultValence is the standard neutral-state valence used when
// materializing implicit hydrogens.
var defaultValence = map[int]int{
	1: 1, 5: 3, 6: 4, 7: 3, 8: 2, 9: 1,
	14: 4, 15: 3, 16: 2, 17: 1, 35: 1, 53: 1,
}

// DefaultValence returns the standard valence for atomic number z and
// whether one is defined.
func DefaultValence(z int) (int, bool) {
	v, ok := defaultValence[z]
	return v, ok
}
