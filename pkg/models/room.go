package models

// RoomID derives the deterministic identifier for the unordered user pair
// {a, b} by sorting the two ids and joining them. Both participants compute
// the identical value without coordination, so RoomID(a,b) == RoomID(b,a).
func RoomID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}
