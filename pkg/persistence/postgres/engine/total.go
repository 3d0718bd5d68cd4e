package engine

// Total derives the reported result total from a page fetched with one extra
// row (limit+1).
//
// When the extra row came back the real total is unknown without a second
// scan, so the caller reports offset+limit+1 and marks it approximate. fetched
// is the raw row count including the probe row; the returned page size tells
// how many rows to hand to the caller.
func Total(offset, limit, fetched int) (total int64, page int, approximate bool) {
	if limit > 0 && fetched > limit {
		return int64(offset + limit + 1), limit, true
	}
	return int64(offset + fetched), fetched, false
}

// ProbeLimit is the limit to send to the store for a page of the given size.
func ProbeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	return limit + 1
}
