package utils

func U64ToBytes(u uint64) []byte {
	return []byte{
		byte(u >> 56), byte(u >> 48), byte(u >> 40), byte(u >> 32),
		byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u),
	}
}

// Fingerprint folds parts into a single order sensitive hash. Used for
// identity hashes of members that are keyed by owner and name.
func Fingerprint(parts ...string) uint64 {
	var acc uint64
	for i, p := range parts {
		if i == 0 {
			acc = U64(p)
			continue
		}
		acc = Mix64(acc, U64(p))
	}
	return acc
}
