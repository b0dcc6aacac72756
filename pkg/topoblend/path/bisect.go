package path

// Bisect describes the motion of both path ends toward a shared midpoint.
// When p has even length the middle sample is duplicated so the path
// becomes odd. The first half runs from p's first sample to the midpoint,
// the second from p's last sample to the midpoint; both include the
// midpoint and have equal length.
//
// Counting the shared midpoint once, the halves split the odd-length path
// of N' samples into ceil(N'/2) and floor(N'/2) samples. The midpoint is
// kept in both so each end travels all the way to it.
func Bisect(p Path) (Path, Path) {
	n := len(p)
	if n == 0 {
		return Path{}, Path{}
	}

	work := p
	if n%2 == 0 {
		h := n / 2
		work = make(Path, 0, n+1)
		work = append(work, p[:h]...)
		work = append(work, p[h])
		work = append(work, p[h:]...)
		n++
	}

	mid := n / 2
	a := work[:mid+1].Clone()
	b := work[mid:].Reverse()
	return a, b
}
