package math

import stdmath "math"

var (
	ln2 = complex(stdmath.Ln2, 0)

	// tanhCutoff is the |Re z| above which cmplx.Tanh overflows its
	// intermediate cosh(2 Re z); beyond it Tanh switches to the exp(-2z) form.
	tanhCutoff = 20.0
)
