package services

// pageOffset converts a 1-based page into a row offset.
func pageOffset(pageNumber, pageSize int) (int, error) {
	if pageNumber < 1 || pageSize < 1 {
		return 0, ErrInvalidPage
	}
	return pageSize * (pageNumber - 1), nil
}

// remainingAfter is how many items follow the given page, never negative.
func remainingAfter(total int64, pageNumber, pageSize int) int64 {
	left := total - int64(pageNumber)*int64(pageSize)
	if left < 0 {
		return 0
	}
	return left
}
