// Package natsort implements numeric-aware natural sort ordering, so
// filenames like "2-title" sort before "10-title" instead of after it.
package natsort

import (
	"sort"
	"strconv"
)

// Strings sorts ss in place using natural order.
func Strings(ss []string) {
	sort.Slice(ss, func(i, j int) bool {
		return Less(ss[i], ss[j])
	})
}

// Less reports whether a should sort before b under natural order: runs of
// digits compare numerically, everything else compares byte-for-byte.
func Less(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]

		if isDigit(ca) && isDigit(cb) {
			na, ei := scanNumber(a, i)
			nb, ej := scanNumber(b, j)
			if na != nb {
				return na < nb
			}
			// Equal numeric value: fall back to length then lexical, so
			// "007" still sorts distinctly from "7" if ever compared.
			if ei-i != ej-j {
				return ei-i < ej-j
			}
			i, j = ei, ej
			continue
		}

		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scanNumber reads the run of digits starting at i and returns its value
// and the index just past it.
func scanNumber(s string, i int) (int64, int) {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	n, _ := strconv.ParseInt(s[i:j], 10, 64)
	return n, j
}
