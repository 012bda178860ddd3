package ranking

import "gonum.org/v1/gonum/floats"

// Normalize divides every score by the maximum when the maximum is
// positive. Otherwise it returns an unchanged copy. The input is never
// modified.
func Normalize(v ScoreVector) ScoreVector {
	out := make(ScoreVector, len(v))
	copy(out, v)
	if len(out) == 0 {
		return out
	}
	if m := floats.Max(out); m > 0 {
		floats.Scale(1/m, out)
	}
	return out
}

// Combine normalizes both vectors and returns
// w.Lexical*norm(lex)[i] + w.Semantic*norm(sem)[i]. No clipping is applied.
func Combine(lex, sem ScoreVector, w Weights) (ScoreVector, error) {
	if len(lex) != len(sem) {
		return nil, ErrLengthMismatch
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	nl, ns := Normalize(lex), Normalize(sem)
	combined := make(ScoreVector, len(lex))
	floats.AddScaled(combined, w.Lexical, nl)
	floats.AddScaled(combined, w.Semantic, ns)
	return combined, nil
}
