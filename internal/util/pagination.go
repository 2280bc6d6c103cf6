package util

// PageSize is the catalog listing page size.
const PageSize = 8

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = PageSize
	}
	from = (page - 1) * size
	return from, size
}

// Pages is the number of pages needed for total rows. An empty listing
// still has one (empty) page.
func Pages(total int64, size int) int {
	if size <= 0 {
		size = PageSize
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
