package navigator

// Wrap moves index by delta within the cyclic range [min, max].
// Any delta is accepted; a range with max < min collapses to min.
func Wrap(index, delta, min, max int) int {
	span := max - min + 1
	if span <= 0 {
		return min
	}

	offset := (index - min + delta) % span
	if offset < 0 {
		offset += span
	}
	return min + offset
}
