package util

// HashU64 mixes a 64-bit value with xorshift steps. Snowflake IDs are mostly
// timestamp bits, so they need mixing before being used as a shard index.
func HashU64(val uint64) uint64 {
	val ^= val << 13
	val ^= val >> 7
	val ^= val << 17
	return val
}

// HashIndex64 returns a shard index for val. mask must be a power of two
// minus one.
func HashIndex64(val, mask uint64) uint64 {
	return HashU64(val) & mask
}
