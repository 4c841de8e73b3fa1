package retrie

// Proof generation follows the state elimination construction from
// Hopcroft, Motwani, Ullman chapter 3.2.1: R(k)[i][j], the regex for
// all paths from i to j that only pass through states numbered below k,
// is built inductively as
//
//	R(k)[ij] = R(k-1)[ij] | R(k-1)[ik] (R(k-1)[kk])* R(k-1)[kj]
//
// with aggressive algebraic simplification at every step so that the
// proofs stay short and, more importantly, canonical: equivalent
// automata must produce byte-identical proofs, since the proof hash is
// the published key.

// expr is a regex under construction. The null expression (no path at
// all) is distinct from the empty string (the epsilon path); both occur
// and the simplifier treats them very differently.
type expr struct {
	s    string
	null bool
}

var nullExpr = expr{null: true}

// exprEq treats two null expressions as equal, a null and a non-null
// one as different.
func exprEq(a, b expr) bool {
	if a.null || b.null {
		return a.null == b.null
	}
	return a.s == b.s
}

// contentEq compares the text only; a null expression compares equal to
// the empty string.
func contentEq(a, b expr) bool {
	return a.s == b.s
}

// hasEpsilon reports whether the expression is an alternation with an
// empty first arm, i.e. looks like "(|...)".
func hasEpsilon(e expr) bool {
	return !e.null && len(e.s) >= 2 && e.s[0] == '(' && e.s[1] == '|' &&
		e.s[len(e.s)-1] == ')'
}

// removeEpsilon turns "(|a|b)" into "a|b" and leaves anything else
// alone.
func removeEpsilon(e expr) expr {
	if e.null {
		return nullExpr
	}
	if len(e.s) > 2 && e.s[0] == '(' && e.s[1] == '|' && e.s[len(e.s)-1] == ')' {
		return expr{s: e.s[2 : len(e.s)-1]}
	}
	return e
}

// removeOuterParens turns "(a)" into "a" but leaves "(a|b)|(a|c)"
// alone: the outer parentheses are only stripped when they enclose the
// whole expression.
func removeOuterParens(e expr) expr {
	if e.null || len(e.s) <= 1 || e.s[0] != '(' || e.s[len(e.s)-1] != ')' {
		return e
	}
	inner := e.s[1 : len(e.s)-1]
	depth := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return e
			}
			depth--
		}
	}
	if depth != 0 {
		return e
	}
	return expr{s: inner}
}

// needsParens reports whether the expression has to be wrapped before a
// postfix operator can be applied to it. Not needed when it is trivial
// or already fully enclosed by one pair of parentheses.
func needsParens(e expr) bool {
	if e.null || len(e.s) < 2 {
		return false
	}
	if e.s[0] != '(' {
		return true
	}
	depth := 1
	for i := 1; i < len(e.s); i++ {
		switch e.s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i != len(e.s)-1
			}
		}
	}
	return true
}

func parenWrap(e expr) string {
	if needsParens(e) {
		return "(" + e.s + ")"
	}
	return e.s
}

// prefixEq compares the first n bytes of two expressions the forgiving
// way the simplifier needs: strings of different length only compare
// equal when both are at least n bytes long.
func prefixEq(a, b string, n int) bool {
	if len(a) != len(b) && (len(a) < n || len(b) < n) {
		return false
	}
	m := max(len(a), len(b))
	if m > n {
		m = n
	}
	return a[:m] == b[:m]
}

// suffixIs reports whether e from position k on equals tail exactly.
func suffixIs(e string, tail string, k int) bool {
	if k > len(e) || len(e)-k != len(tail) {
		return false
	}
	return e[k:] == tail
}

func startsWithEpsilonParen(e expr) bool {
	return !e.null && len(e.s) >= 2 && e.s[0] == '(' && e.s[1] == '|'
}

// simplifyProof computes one inductive step, applying the identities
// commented on each branch so that equivalent inputs collapse onto one
// spelling. Branch order matters; do not reorder.
func simplifyProof(ij, ik, kk, kj expr) expr {
	if ij.null && (ik.null || kj.null) {
		// N | N
		return nullExpr
	}
	if ik.null || kj.null {
		// R(k-1)[ij] | N
		return ij
	}

	l := nullExpr
	r := nullExpr

	ijIkEq := exprEq(ij, ik)
	ijKjEq := exprEq(ij, kj)
	ikKkEq := exprEq(ik, kk)
	kkKjEq := exprEq(kk, kj)

	tIK := removeOuterParens(removeEpsilon(ik))
	tKK := removeOuterParens(removeEpsilon(kk))
	tKJ := removeOuterParens(removeEpsilon(kj))
	cleanIkKkEq := exprEq(ik, tKK)
	cleanKkKjEq := exprEq(tKK, kj)

	if !ij.null {
		tIJ := removeOuterParens(removeEpsilon(ij))

		switch {
		case contentEq(tIJ, tIK) && contentEq(tIK, tKK) && contentEq(tKK, tKJ):
			if len(tIJ.s) == 0 {
				r = expr{s: ""}
			} else if startsWithEpsilonParen(ij) ||
				(startsWithEpsilonParen(ik) && startsWithEpsilonParen(kj)) {
				// a|(e|a)a*(e|a) = a*
				// (e|a)|aa*a = a*
				r = expr{s: parenWrap(tIJ) + "*"}
			} else {
				// a|aa*a = a+
				r = expr{s: parenWrap(tIJ) + "+"}
			}
		case ijIkEq && cleanKkKjEq && !cleanIkKkEq:
			// a|ab*b = ab*
			if len(kk.s) == 0 {
				r = ij
			} else if needsParens(tKK) {
				r = expr{s: ij.s + "(" + tKK.s + ")*"}
			} else {
				r = expr{s: ij.s + kk.s + "*"}
			}
		case ijKjEq && cleanIkKkEq && !cleanKkKjEq:
			// a|bb*a = b*a
			if len(kk.s) < 1 {
				r = kj
			} else if needsParens(tKK) {
				r = expr{s: "(" + tKK.s + ")*" + kj.s}
			} else {
				r = expr{s: tKK.s + "*" + kj.s}
			}
		case ijIkEq && kkKjEq && !hasEpsilon(ij) && hasEpsilon(kk):
			// a|a(e|b)*(e|b) = a|ab* = ab*
			if needsParens(tKK) {
				r = expr{s: ij.s + "(" + tKK.s + ")*"}
			} else {
				r = expr{s: ij.s + tKK.s + "*"}
			}
		case ijKjEq && ikKkEq && !hasEpsilon(ij) && hasEpsilon(kk):
			// a|(e|b)(e|b)*a = a|b*a = b*a
			if needsParens(tKK) {
				r = expr{s: "(" + tKK.s + ")*" + ij.s}
			} else {
				r = expr{s: tKK.s + "*" + ij.s}
			}
		default:
			l = removeOuterParens(ij)
		}
	}

	if r.null {
		length := len(tKK.s) - len(ik.s)

		if length > 0 &&
			!kk.null && len(kk.s) > 0 &&
			!kj.null && len(kj.s) > 0 &&
			!ik.null && len(ik.s) > 0 &&
			suffixIs(tKK.s, ik.s, length) &&
			prefixEq(tKK.s, kj.s, length) {
			// a(ba)*bx = (ab)+x
			tempA := kj.s[:length]
			tempB := kj.s[length:]
			if !l.null && len(l.s) == 0 && len(tempB) == 0 {
				// e|(ab)+ = (ab)*
				r = expr{s: "(" + ik.s + tempA + ")*"}
				l = nullExpr
			} else {
				r = expr{s: "(" + ik.s + tempA + ")+" + tempB}
			}
		} else if contentEq(tIK, tKK) && contentEq(tKK, tKJ) {
			if hasEpsilon(ik) && hasEpsilon(kj) {
				// (e|a)a*(e|a) = a*
				r = expr{s: parenWrap(tKK) + "*"}
			} else if cleanIkKkEq && cleanKkKjEq && !hasEpsilon(ik) {
				// aa*a = a+a
				r = expr{s: parenWrap(tKK) + "+" + tKK.s}
			} else {
				epsCount := 0
				for _, e := range []expr{ik, kk, kj} {
					if hasEpsilon(e) {
						epsCount++
					}
				}
				if epsCount == 1 {
					// (e|a)a*a = a+, aa*(e|a) = a+
					r = expr{s: parenWrap(tKK) + "+"}
				}
			}
		} else if contentEq(tIK, tKK) {
			if hasEpsilon(ik) {
				// (e|a)(e|a)*b = a*b
				r = expr{s: parenWrap(tKK) + "*" + kj.s}
			} else {
				// aa*b = a+b
				r = expr{s: parenWrap(tKK) + "+" + kj.s}
			}
		} else if contentEq(tKK, tKJ) {
			if hasEpsilon(kj) {
				// b(e|a)*(e|a) = ba*
				r = expr{s: ik.s + parenWrap(tKK) + "*"}
			} else {
				// ba*a = ba+
				r = expr{s: ik.s + parenWrap(tKK) + "+"}
			}
		} else {
			if len(tKK.s) > 0 {
				r = expr{s: ik.s + parenWrap(tKK) + "*" + kj.s}
			} else {
				r = expr{s: ik.s + kj.s}
			}
		}
	}

	switch {
	case l.null && r.null:
		return nullExpr
	case !l.null && r.null:
		return l
	case l.null && !r.null:
		return r
	case exprEq(l, r):
		return l
	default:
		return expr{s: "(" + l.s + "|" + r.s + ")"}
	}
}

// createProofs assigns a proof and key to every state reachable from
// the start state. The start state's own proof is the empty string
// unless something loops back into it. The canonical regex for the
// whole automaton, the union of the accepting states' proofs, is
// stored on the automaton.
func createProofs(a *Automaton) {
	n := len(a.states)
	if n == 0 {
		return
	}
	states := make([]*state, n)
	a.traverse(a.start, nil, func(count int, s *state) {
		states[count] = s
	})

	rLast := make([]expr, n*n)
	rCur := make([]expr, n*n)
	for i := range rLast {
		rLast[i] = nullExpr
	}

	// length-1 regexes between adjacent pairs
	for i := 0; i < n; i++ {
		for _, t := range states[i].transitions {
			j := t.to.traversalID
			if rLast[i*n+j].null {
				rLast[i*n+j] = expr{s: t.label}
			} else {
				rLast[i*n+j] = expr{s: rLast[i*n+j].s + "|" + t.label}
			}
		}
		// i reaches itself via the empty path
		if rLast[i*n+i].null {
			rLast[i*n+i] = expr{s: ""}
		} else {
			rLast[i*n+i] = expr{s: "(|" + rLast[i*n+i].s + ")"}
		}
	}
	for i := range rLast {
		if needsParens(rLast[i]) {
			rLast[i] = expr{s: "(" + rLast[i].s + ")"}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				rCur[i*n+j] = simplifyProof(
					rLast[i*n+j], rLast[i*n+k],
					rLast[k*n+k], rLast[k*n+j])
			}
		}
		rLast, rCur = rCur, rLast
	}

	si := a.start.traversalID
	for i := 0; i < n; i++ {
		e := rLast[si*n+i]
		if e.null {
			continue
		}
		states[i].proof = e.s
		states[i].hasProof = true
		states[i].key = hashOf(e.s)
	}

	complete := ""
	for i := 0; i < n; i++ {
		if !states[i].accepting {
			continue
		}
		e := rLast[si*n+i]
		if len(complete) == 0 && len(e.s) > 0 {
			complete = e.s
		} else if !e.null && len(e.s) > 0 {
			complete += "|" + e.s
		}
	}
	a.canonical = complete
}

// CanonicalRegex returns the canonical form computed during proof
// generation: the union of the accepting states' proofs. Equivalent
// regexes compile to automata with identical canonical forms. Empty for
// NFAs.
func (a *Automaton) CanonicalRegex() string {
	return a.canonical
}
