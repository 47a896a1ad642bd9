//go:build !darwin

package window

func snapshot() (float64, float64, []Info, error) {
	return 0, 0, nil, ErrUnsupported
}
